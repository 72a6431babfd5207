package app

import "fmt"

// CheckInvariants verifies handle pairing and priority exclusivity over the
// whole registry. It returns the first violation found.
func CheckInvariants(r *Registry, p Policy) error {
	priority := r.Any(func(e *Entry) bool { return p.IsPriority(e.Role) })
	for _, e := range r.Snapshot() {
		if e.Routing != nil && e.Routing.Link != nil && e.Routing.Mix.Name == "" {
			return fmt.Errorf("client %d: link without mixing endpoint", e.ID)
		}
		if !e.HasRole() {
			continue
		}
		action := p.OnPriority(e.Role)
		switch {
		case priority && action == Duck && !e.Ducked:
			return fmt.Errorf("client %d (%s): not ducked during priority", e.ID, e.Role)
		case priority && action == Silence && e.Linked():
			return fmt.Errorf("client %d (%s): audible during priority", e.ID, e.Role)
		case !priority && e.Ducked:
			return fmt.Errorf("client %d (%s): ducked without priority", e.ID, e.Role)
		case !priority && !e.Linked():
			return fmt.Errorf("client %d (%s): roled without link", e.ID, e.Role)
		}
	}
	return nil
}
