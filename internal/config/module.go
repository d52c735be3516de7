package config

// Module type tags as they appear in the config file.
const (
	KindTimestamp      = "timestamp"
	KindMemoryUsage    = "memory_usage"
	KindSwapUsage      = "swap_usage"
	KindCPUUsage       = "cpu_usage"
	KindProcessCount   = "process_count"
	KindDiskUsage      = "disk_usage"
	KindDiskUsageTotal = "disk_usage_total"
)

// Kinds lists every module type tag.
var Kinds = []string{
	KindTimestamp,
	KindMemoryUsage,
	KindSwapUsage,
	KindCPUUsage,
	KindProcessCount,
	KindDiskUsage,
	KindDiskUsageTotal,
}

// Module is what a section renders. The set of implementations is closed:
// every variant is declared in this file and dispatched through Visitor.
type Module interface {
	// Kind returns the module's type tag.
	Kind() string
	// Accept calls the Visitor method matching the variant.
	Accept(v Visitor)
	isModule()
}

// Visitor handles each Module variant. A new variant adds a method here,
// which every dispatch site must then implement.
type Visitor interface {
	VisitTimestamp(Timestamp)
	VisitMemoryUsage(MemoryUsage)
	VisitSwapUsage(SwapUsage)
	VisitCPUUsage(CPUUsage)
	VisitProcessCount(ProcessCount)
	VisitDiskUsage(DiskUsage)
	VisitDiskUsageTotal(DiskUsageTotal)
}

// Timestamp renders the current local time with a strftime template.
type Timestamp struct {
	Template string
}

// MemoryUsage renders used/total physical memory.
type MemoryUsage struct{}

// SwapUsage renders used/total swap.
type SwapUsage struct{}

// CPUUsage renders the global CPU load as a percentage.
type CPUUsage struct{}

// ProcessCount renders the number of running processes.
type ProcessCount struct{}

// DiskUsage renders used/total space of the disk with the given device name.
type DiskUsage struct {
	Name string
}

// DiskUsageTotal renders used/total space summed over all disks.
type DiskUsageTotal struct {
	IncludeRemovables bool
}

func (Timestamp) Kind() string      { return KindTimestamp }
func (MemoryUsage) Kind() string    { return KindMemoryUsage }
func (SwapUsage) Kind() string      { return KindSwapUsage }
func (CPUUsage) Kind() string       { return KindCPUUsage }
func (ProcessCount) Kind() string   { return KindProcessCount }
func (DiskUsage) Kind() string      { return KindDiskUsage }
func (DiskUsageTotal) Kind() string { return KindDiskUsageTotal }

func (m Timestamp) Accept(v Visitor)      { v.VisitTimestamp(m) }
func (m MemoryUsage) Accept(v Visitor)    { v.VisitMemoryUsage(m) }
func (m SwapUsage) Accept(v Visitor)      { v.VisitSwapUsage(m) }
func (m CPUUsage) Accept(v Visitor)       { v.VisitCPUUsage(m) }
func (m ProcessCount) Accept(v Visitor)   { v.VisitProcessCount(m) }
func (m DiskUsage) Accept(v Visitor)      { v.VisitDiskUsage(m) }
func (m DiskUsageTotal) Accept(v Visitor) { v.VisitDiskUsageTotal(m) }

func (Timestamp) isModule()      {}
func (MemoryUsage) isModule()    {}
func (SwapUsage) isModule()      {}
func (CPUUsage) isModule()       {}
func (ProcessCount) isModule()   {}
func (DiskUsage) isModule()      {}
func (DiskUsageTotal) isModule() {}

var (
	_ Module = Timestamp{}
	_ Module = MemoryUsage{}
	_ Module = SwapUsage{}
	_ Module = CPUUsage{}
	_ Module = ProcessCount{}
	_ Module = DiskUsage{}
	_ Module = DiskUsageTotal{}
)
