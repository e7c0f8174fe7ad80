package supervisor

import (
	"github.com/shirou/gopsutil/v3/process"
)

// Usage is a best-effort resource snapshot of a child that is about to be
// killed. Either field may be zero when the kernel no longer exposes the
// process by the time it is sampled.
type Usage struct {
	CPUPercent float64 `json:"cpu_percent" yaml:"cpu_percent"`
	RSSBytes   uint64  `json:"rss_bytes" yaml:"rss_bytes"`
}

// snapshotUsage samples CPU and resident memory for pid. Returns nil when
// the process has already vanished.
func snapshotUsage(pid int) *Usage {
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return nil
	}

	u := &Usage{}
	if cpu, err := proc.CPUPercent(); err == nil {
		u.CPUPercent = cpu
	}
	if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
		u.RSSBytes = mem.RSS
	}
	return u
}
