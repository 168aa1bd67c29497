package tracer

import (
	"bytes"
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"
)

// Statistics for a single bounce.
type BounceStats struct {
	// Number of path segments traced.
	Rays uint64

	// Number of segments that hit a surface.
	Hits uint64

	// Number of segments that hit an emissive surface.
	Emissive uint64

	// Number of queries that exhausted the traversal stack.
	Overflows uint64

	Time time.Duration
}

type FrameStats struct {
	// Per bounce stats.
	Bounces []BounceStats

	// Total traced path segments.
	Rays uint64

	// Paths that terminated by hitting a light.
	LitPaths uint64

	// Total render time for entire frame.
	RenderTime time.Duration
}

// Get the traced rays per second.
func (fs FrameStats) RaysPerSecond() float64 {
	if fs.RenderTime <= 0 {
		return 0
	}
	return float64(fs.Rays) / fs.RenderTime.Seconds()
}

// Build a tabular representation of the frame statistics.
func (fs FrameStats) Table() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Bounce", "Rays", "Hits", "% hit", "Emissive", "Overflows", "Time"})
	for index, stat := range fs.Bounces {
		hitPercent := 0.0
		if stat.Rays > 0 {
			hitPercent = 100 * float64(stat.Hits) / float64(stat.Rays)
		}
		table.Append([]string{
			fmt.Sprintf("%d", index),
			fmt.Sprintf("%d", stat.Rays),
			fmt.Sprintf("%d", stat.Hits),
			fmt.Sprintf("%02.1f %%", hitPercent),
			fmt.Sprintf("%d", stat.Emissive),
			fmt.Sprintf("%d", stat.Overflows),
			fmt.Sprintf("%s", stat.Time),
		})
	}
	table.SetFooter([]string{
		"TOTAL",
		fmt.Sprintf("%d", fs.Rays),
		"",
		"",
		fmt.Sprintf("%d", fs.LitPaths),
		fmt.Sprintf("%.0f rays/s", fs.RaysPerSecond()),
		fmt.Sprintf("%s", fs.RenderTime),
	})

	table.Render()
	return buf.String()
}
