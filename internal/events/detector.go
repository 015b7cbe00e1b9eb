// Package events flags frames whose traded volume exceeds the big-volume
// trigger and derives the reversion levels and validity horizons around
// them.
package events

import (
	"volume-reversion-lab/internal/config"
	"volume-reversion-lab/internal/domain"
)

// Detector turns a frame sequence into big-volume events.
type Detector struct {
	trigger    float64
	bigTimeout config.Duration
	revTimeout config.Duration
	expand     float64
	gridExpand float64 // 0 when grid mode is off
}

// NewDetector creates a detector from detection and grid parameters. When
// grid mode is on, the reversion levels are pushed out by the grid expansion
// so they mark where the second entry would sit.
func NewDetector(detection config.DetectionConfig, grid config.GridConfig) *Detector {
	d := &Detector{
		trigger:    detection.BigVolumeTrigger,
		bigTimeout: detection.BigVolumeTimeout,
		revTimeout: detection.ReversionTimeout,
		expand:     detection.ReversionExpand,
	}
	if grid.Enabled {
		d.gridExpand = grid.Expand
	}
	return d
}

// Detect returns one event per qualifying frame, in frame order. A frame
// qualifies when its total volume strictly exceeds the trigger. Consecutive
// qualifying frames produce independent events; nothing is merged.
func (d *Detector) Detect(frames []*domain.Frame) []*domain.VolumeEvent {
	var out []*domain.VolumeEvent
	for _, f := range frames {
		if f.TotalVolume <= d.trigger {
			continue
		}
		out = append(out, &domain.VolumeEvent{
			Timestamp:         f.Timestamp,
			BigVolumeDeadline: f.Timestamp.Add(d.bigTimeout.Duration),
			ReversionDeadline: f.Timestamp.Add(d.revTimeout.Duration),
			TotalVolume:       f.TotalVolume,
			BidVolume:         f.BidVolume,
			AskVolume:         f.AskVolume,
			Close:             f.Close,
			SMA:               f.SMA,
			MeanLevelUp:       f.Close + d.expand + d.gridExpand,
			MeanLevelDown:     f.Close - d.expand - d.gridExpand,
		})
	}
	return out
}
