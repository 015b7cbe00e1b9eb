package profile

import (
	"testing"
	"time"

	"volume-reversion-lab/internal/domain"
)

var base = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func at(ms int) time.Time {
	return base.Add(time.Duration(ms) * time.Millisecond)
}

func TestUpdateAggregatesBySideAndLevel(t *testing.T) {
	p := New(time.Second, 0.25)

	p.Update(at(0), 5000.00, 3, domain.SideBid)
	p.Update(at(100), 5000.00, 2, domain.SideAsk)
	p.Update(at(200), 5000.25, 5, domain.SideBid)

	lv, ok := p.LevelAt(5000.00)
	if !ok {
		t.Fatal("level 5000.00 missing")
	}
	if lv.Bid != 3 || lv.Ask != 2 || lv.Total != 5 {
		t.Errorf("level 5000.00 = %+v, want Bid 3 Ask 2 Total 5", lv)
	}
	if got := p.VolumeAt(5000.25, domain.SideBid); got != 5 {
		t.Errorf("VolumeAt(5000.25, BID) = %f, want 5", got)
	}
	if got := p.TradeCount(5000.00); got != 2 {
		t.Errorf("TradeCount(5000.00) = %d, want 2", got)
	}
	if got := p.SideTradeCount(5000.00, domain.SideAsk); got != 1 {
		t.Errorf("SideTradeCount(5000.00, ASK) = %d, want 1", got)
	}
}

func TestBucketSnapsToTickSize(t *testing.T) {
	p := New(time.Second, 0.25)

	// 5000.10 and 5000.12 share the 5000.0 bucket; 5000.13 rounds up.
	p.Update(at(0), 5000.10, 1, domain.SideBid)
	p.Update(at(10), 5000.12, 1, domain.SideBid)
	p.Update(at(20), 5000.13, 1, domain.SideBid)

	if got := p.VolumeAt(5000.0, domain.SideBid); got != 2 {
		t.Errorf("VolumeAt(5000.0) = %f, want 2", got)
	}
	if got := p.VolumeAt(5000.25, domain.SideBid); got != 1 {
		t.Errorf("VolumeAt(5000.25) = %f, want 1", got)
	}
}

func TestZeroTickSizeKeepsRawPrices(t *testing.T) {
	p := New(time.Second, 0)

	p.Update(at(0), 5000.10, 1, domain.SideBid)
	p.Update(at(10), 5000.12, 1, domain.SideBid)

	if got := len(p.Snapshot()); got != 2 {
		t.Errorf("Snapshot levels = %d, want 2 distinct raw prices", got)
	}
}

func TestEvictionIsExactSlidingWindow(t *testing.T) {
	p := New(time.Second, 0.25)

	p.Update(at(0), 5000, 3, domain.SideBid)
	p.Update(at(500), 5000, 2, domain.SideAsk)

	// A tick exactly window-old stays: eviction is strictly older-than.
	p.Update(at(1000), 5001, 1, domain.SideBid)
	if got := p.VolumeAt(5000, domain.SideBid); got != 3 {
		t.Errorf("boundary tick evicted early: VolumeAt(5000, BID) = %f, want 3", got)
	}

	// One millisecond later the t=0 tick is gone, t=500 remains.
	p.Update(at(1001), 5001, 1, domain.SideBid)
	if got := p.VolumeAt(5000, domain.SideBid); got != 0 {
		t.Errorf("VolumeAt(5000, BID) = %f, want 0 after expiry", got)
	}
	if got := p.VolumeAt(5000, domain.SideAsk); got != 2 {
		t.Errorf("VolumeAt(5000, ASK) = %f, want 2", got)
	}
}

func TestFullyExpiredLevelLeavesNoResidue(t *testing.T) {
	p := New(time.Second, 0.25)

	p.Update(at(0), 5000, 3, domain.SideBid)
	p.Update(at(0), 5000, 2, domain.SideAsk)
	p.Update(at(2000), 5005, 1, domain.SideBid)

	snap := p.Snapshot()
	if _, exists := snap[5000.0]; exists {
		t.Error("expired level 5000 still present in snapshot")
	}
	if len(snap) != 1 {
		t.Errorf("Snapshot levels = %d, want 1", len(snap))
	}
	if _, ok := p.LevelAt(5000); ok {
		t.Error("LevelAt reports a fully expired level")
	}
}

func TestVolumeConservation(t *testing.T) {
	p := New(time.Second, 0.25)

	var inserted float64
	prices := []float64{5000, 5000.25, 5000.5, 5000, 5001, 5000.25}
	for i, price := range prices {
		vol := float64(i + 1)
		side := domain.SideBid
		if i%2 == 1 {
			side = domain.SideAsk
		}
		p.Update(at(i*100), price, vol, side)
		inserted += vol
	}

	var total float64
	for _, lv := range p.Snapshot() {
		total += lv.Total
	}
	if total != inserted {
		t.Errorf("snapshot total = %f, want %f", total, inserted)
	}
	if got := p.LiveTicks(); got != len(prices) {
		t.Errorf("LiveTicks = %d, want %d", got, len(prices))
	}
}

func TestDegenerateZeroWindow(t *testing.T) {
	p := New(0, 0.25)

	p.Update(at(0), 5000, 3, domain.SideBid)
	if got := p.VolumeAt(5000, domain.SideBid); got != 3 {
		t.Errorf("same-timestamp tick should be live, got %f", got)
	}

	p.Update(at(1), 5001, 1, domain.SideBid)
	if got := p.VolumeAt(5000, domain.SideBid); got != 0 {
		t.Errorf("VolumeAt(5000) = %f, want 0 under a zero window", got)
	}
}

func TestExpireUntilAdvancesWithoutInsert(t *testing.T) {
	p := New(time.Second, 0.25)

	p.Update(at(0), 5000, 3, domain.SideBid)
	p.ExpireUntil(at(1500))

	if got := p.LiveTicks(); got != 0 {
		t.Errorf("LiveTicks = %d, want 0 after ExpireUntil", got)
	}
	if !p.Latest().Equal(at(1500)) {
		t.Errorf("Latest = %v, want %v", p.Latest(), at(1500))
	}

	// A stale ExpireUntil never rewinds the clock.
	p.Update(at(2000), 5001, 1, domain.SideBid)
	p.ExpireUntil(at(1000))
	if !p.Latest().Equal(at(2000)) {
		t.Errorf("Latest rewound to %v", p.Latest())
	}
	if got := p.LiveTicks(); got != 1 {
		t.Errorf("LiveTicks = %d, want 1", got)
	}
}

func TestSnapshotTradesMatchesAggregates(t *testing.T) {
	p := New(time.Second, 0.25)

	p.Update(at(0), 5000, 3, domain.SideBid)
	p.Update(at(400), 5000, 2, domain.SideAsk)
	p.Update(at(600), 5000, 4, domain.SideBid)
	p.Update(at(1300), 5001, 1, domain.SideBid) // expires the t=0 tick

	trades := p.SnapshotTrades()
	lt := trades[5000.0]
	if len(lt.Bid) != 1 || len(lt.Ask) != 1 {
		t.Fatalf("level 5000 trades = %d bid, %d ask; want 1, 1", len(lt.Bid), len(lt.Ask))
	}
	if lt.Bid[0].Volume != 4 {
		t.Errorf("surviving bid tick volume = %f, want 4", lt.Bid[0].Volume)
	}

	var sum float64
	for price, lt := range trades {
		for _, tick := range append(lt.Bid, lt.Ask...) {
			if tick.Price != price {
				t.Errorf("tick at %f listed under level %f", tick.Price, price)
			}
			sum += tick.Volume
		}
	}
	var aggregate float64
	for _, lv := range p.Snapshot() {
		aggregate += lv.Total
	}
	if sum != aggregate {
		t.Errorf("trade list volume %f disagrees with aggregate %f", sum, aggregate)
	}
}

func TestMinBidMaxAsk(t *testing.T) {
	p := New(time.Second, 0.25)

	p.Update(at(0), 5000, 1, domain.SideBid)
	p.Update(at(0), 4999, 2, domain.SideBid)
	p.Update(at(0), 5002, 3, domain.SideAsk)
	p.Update(at(0), 5001, 4, domain.SideAsk)

	if price, volume, ok := p.MinBid(); !ok || price != 4999 || volume != 2 {
		t.Errorf("MinBid = %f/%f/%v, want 4999/2/true", price, volume, ok)
	}
	if price, volume, ok := p.MaxAsk(); !ok || price != 5002 || volume != 3 {
		t.Errorf("MaxAsk = %f/%f/%v, want 5002/3/true", price, volume, ok)
	}

	empty := New(time.Second, 0.25)
	if _, _, ok := empty.MinBid(); ok {
		t.Error("MinBid on empty profile reported ok")
	}
}

func TestTopLevelsDeterministicTieBreak(t *testing.T) {
	p := New(time.Minute, 0.25)

	p.Update(at(0), 5001, 5, domain.SideBid)
	p.Update(at(0), 5000, 5, domain.SideBid) // ties on volume, lower price
	p.Update(at(0), 5002, 9, domain.SideAsk)

	top := p.TopLevels(2)
	if len(top) != 2 {
		t.Fatalf("TopLevels(2) returned %d", len(top))
	}
	if top[0].Price != 5002 || top[0].Volume != 9 {
		t.Errorf("top[0] = %+v, want 5002/9", top[0])
	}
	if top[1].Price != 5000 {
		t.Errorf("top[1].Price = %f, want the lower tied price 5000", top[1].Price)
	}
}

func TestQueueCompactionPreservesState(t *testing.T) {
	p := New(100*time.Millisecond, 0.25)

	// Push enough churn to force several prefix compactions.
	for i := 0; i < 1000; i++ {
		p.Update(at(i*10), 5000+float64(i%4)*0.25, 1, domain.SideBid)
	}

	// Window of 100ms over 10ms spacing keeps exactly 11 ticks live.
	if got := p.LiveTicks(); got != 11 {
		t.Errorf("LiveTicks = %d, want 11", got)
	}
	var total float64
	for _, lv := range p.Snapshot() {
		total += lv.Total
	}
	if total != 11 {
		t.Errorf("snapshot total = %f, want 11", total)
	}
}
