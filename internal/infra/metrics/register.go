package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once    sync.Once
	pending []prometheus.Collector
)

// register queues collectors from each metrics file's init.
func register(cs ...prometheus.Collector) {
	pending = append(pending, cs...)
}

// RegisterTo registers every queued collector with reg, stopping at the first error.
func RegisterTo(reg prometheus.Registerer) error {
	for _, c := range pending {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// MustRegister registers the bot's collectors with the default registry once.
// Later calls are no-ops.
func MustRegister() {
	once.Do(func() {
		if err := RegisterTo(prometheus.DefaultRegisterer); err != nil {
			panic(err)
		}
	})
}
