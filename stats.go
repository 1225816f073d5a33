package rdt

import "github.com/prometheus/client_golang/prometheus"

// Stats aggregates protocol counters. A nil *Stats is valid everywhere and
// counts nothing, so instrumentation stays optional.
type Stats struct {
	Transmissions     prometheus.Counter
	Retransmissions   prometheus.Counter
	Deliveries        prometheus.Counter
	DuplicatesDropped prometheus.Counter
	ChecksumFailures  prometheus.Counter
	PacketsDropped    prometheus.Counter
	PacketsCorrupted  prometheus.Counter
}

func NewStats() *Stats {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rdt",
			Name:      name,
			Help:      help,
		})
	}
	return &Stats{
		Transmissions:     counter("transmissions_total", "Datagrams handed to the channel, including retransmissions and control packets."),
		Retransmissions:   counter("retransmissions_total", "DATA packets sent again after a timeout or negative acknowledgment."),
		Deliveries:        counter("deliveries_total", "Payloads delivered to the application."),
		DuplicatesDropped: counter("duplicates_dropped_total", "DATA packets discarded for carrying an unexpected sequence number."),
		ChecksumFailures:  counter("checksum_failures_total", "Packets discarded for failing checksum verification."),
		PacketsDropped:    counter("channel_packets_dropped_total", "Datagrams dropped by the simulated channel."),
		PacketsCorrupted:  counter("channel_packets_corrupted_total", "Datagrams corrupted by the simulated channel."),
	}
}

// Register adds all counters to reg, typically prometheus.DefaultRegisterer.
func (s *Stats) Register(reg prometheus.Registerer) error {
	for _, collector := range s.collectors() {
		if err := reg.Register(collector); err != nil {
			return err
		}
	}
	return nil
}

func (s *Stats) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		s.Transmissions,
		s.Retransmissions,
		s.Deliveries,
		s.DuplicatesDropped,
		s.ChecksumFailures,
		s.PacketsDropped,
		s.PacketsCorrupted,
	}
}

func (s *Stats) countTransmission() {
	if s != nil {
		s.Transmissions.Inc()
	}
}

func (s *Stats) countRetransmission() {
	if s != nil {
		s.Retransmissions.Inc()
	}
}

func (s *Stats) countDelivery() {
	if s != nil {
		s.Deliveries.Inc()
	}
}

func (s *Stats) countDuplicateDropped() {
	if s != nil {
		s.DuplicatesDropped.Inc()
	}
}

func (s *Stats) countChecksumFailure() {
	if s != nil {
		s.ChecksumFailures.Inc()
	}
}

func (s *Stats) countPacketDropped() {
	if s != nil {
		s.PacketsDropped.Inc()
	}
}

func (s *Stats) countPacketCorrupted() {
	if s != nil {
		s.PacketsCorrupted.Inc()
	}
}
