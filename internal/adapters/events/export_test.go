package events

// SetIDSource replaces the generator used for CloudEvents without an id.
func (d *Decoder) SetIDSource(newID func() string) {
	d.newID = newID
}
