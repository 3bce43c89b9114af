package netplan

// The standard address plan used on installs. Device-type rows win over
// category rows; anything unrecognised lands in the "other" range.
//
// The camera fallback deliberately reuses the nvr default address. That
// matches the plan sheets jobs have been commissioned against, so it stays
// until the product owner signs off on changing it.

var defaultTypeEntries = []PoolEntry{
	{Key: "nvr", Subnet: "192.168.220", VLANID: 20, RangeStart: 81, RangeEnd: 89, FallbackAddress: "192.168.220.81"},
	{Key: "control_processor", Subnet: "192.168.210", VLANID: 1, RangeStart: 40, RangeEnd: 49, FallbackAddress: "192.168.210.40"},
	{Key: "touch_panel", Subnet: "192.168.210", VLANID: 1, RangeStart: 60, RangeEnd: 99, FallbackAddress: "192.168.210.60"},
}

var defaultCategoryEntries = []PoolEntry{
	{Key: "camera", Subnet: "192.168.220", VLANID: 20, RangeStart: 131, RangeEnd: 200, FallbackAddress: "192.168.220.81"},
	{Key: "network", Subnet: "192.168.210", VLANID: 1, RangeStart: 1, RangeEnd: 30, FallbackAddress: "192.168.210.254"},
	{Key: "control", Subnet: "192.168.210", VLANID: 1, RangeStart: 50, RangeEnd: 99, FallbackAddress: "192.168.210.50"},
	{Key: "audio", Subnet: "192.168.212", VLANID: 12, RangeStart: 20, RangeEnd: 99, FallbackAddress: "192.168.212.20"},
	{Key: "video", Subnet: "192.168.212", VLANID: 12, RangeStart: 100, RangeEnd: 199, FallbackAddress: "192.168.212.100"},
	{Key: "lighting", Subnet: "192.168.214", VLANID: 14, RangeStart: 10, RangeEnd: 60, FallbackAddress: "192.168.214.10"},
}

var defaultCatchAll = PoolEntry{
	Key: "other", Subnet: "192.168.210", VLANID: 1, RangeStart: 200, RangeEnd: 230, FallbackAddress: "192.168.210.200",
}

// DefaultRegistry returns a registry loaded with the standard address plan
func DefaultRegistry() *Registry {
	return NewRegistry(defaultTypeEntries, defaultCategoryEntries, defaultCatchAll)
}
