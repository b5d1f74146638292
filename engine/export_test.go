package engine

// SetOnAcquire installs fn to run right after the critical section is acquired.
func (c *Conn) SetOnAcquire(fn func()) {
	c.onAcquire = fn
}
