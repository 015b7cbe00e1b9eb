package strategy

// trailStop implements the full trailing stop: from entry it tracks the
// extreme favorable price and keeps the stop at a fixed distance behind it.
// The stop only ever tightens.
type trailStop struct {
	d        direction
	distance float64
	extreme  float64
	tracking bool
	moved    bool
}

// observe advances the trail with the bar's favorable reference price and
// tightens *stop when the recomputed candidate is stricter.
func (t *trailStop) observe(ref float64, stop *float64) {
	if !t.tracking || t.d.factor*(ref-t.extreme) > 0 {
		t.extreme = ref
		t.tracking = true
		candidate := t.extreme - t.d.factor*t.distance
		if t.d.factor*(candidate-*stop) > 0 {
			*stop = candidate
			t.moved = true
		}
	}
}

// cashTrail implements the cash-and-trail hybrid: the stop stays fixed until
// the best unrealized profit reaches the activation threshold, then trails
// the extreme since activation at the configured distance. The trailed stop
// never loosens and never crosses back beyond the original fixed stop.
type cashTrail struct {
	d          direction
	activation float64
	distance   float64
	initialSL  float64

	bestProfit float64
	activated  bool
	extreme    float64
	moved      bool
}

func (c *cashTrail) observe(ref, profit float64, stop *float64) {
	if profit > c.bestProfit {
		c.bestProfit = profit
	}

	if !c.activated && c.bestProfit >= c.activation {
		c.activated = true
		c.extreme = ref
	}

	if !c.activated {
		return
	}

	if c.d.factor*(ref-c.extreme) > 0 {
		c.extreme = ref
	}
	candidate := c.extreme - c.d.factor*c.distance
	if c.d.factor*(candidate-*stop) > 0 && c.d.factor*(candidate-c.initialSL) > 0 {
		*stop = candidate
		c.moved = true
	}
}
