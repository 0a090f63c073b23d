package biquad

// Chain is a cascade of biquad sections processed in order.
type Chain struct {
	sections []Section
}

// NewChain returns a cascade built from coeffs. An empty list yields a
// pass-through chain.
func NewChain(coeffs ...Coefficients) *Chain {
	c := &Chain{sections: make([]Section, len(coeffs))}
	for i, k := range coeffs {
		c.sections[i].Coefficients = k
	}
	return c
}

// ProcessSample filters one sample through all sections.
func (c *Chain) ProcessSample(x float64) float64 {
	for i := range c.sections {
		x = c.sections[i].ProcessSample(x)
	}
	return x
}

// ProcessBlock filters buf in place through all sections.
func (c *Chain) ProcessBlock(buf []float64) {
	for i := range c.sections {
		c.sections[i].ProcessBlock(buf)
	}
}

// Reset clears the state of every section.
func (c *Chain) Reset() {
	for i := range c.sections {
		c.sections[i].Reset()
	}
}

// NumSections returns the number of cascaded sections.
func (c *Chain) NumSections() int { return len(c.sections) }

// Section returns section i.
func (c *Chain) Section(i int) *Section { return &c.sections[i] }
