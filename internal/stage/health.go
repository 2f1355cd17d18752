package stage

import "fmt"

// Health is one stage's readiness line in status output.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

func Unhealthy(name, detail string) Health {
	return Health{Name: name, Detail: detail}
}

// FromError reports name as ready when err is nil and unhealthy with the
// error text otherwise.
func FromError(name string, err error) Health {
	if err != nil {
		return Unhealthy(name, err.Error())
	}
	return Healthy(name)
}

func (h Health) String() string {
	if h.Ready {
		return h.Name + ": ready"
	}
	return fmt.Sprintf("%s: not ready (%s)", h.Name, h.Detail)
}
