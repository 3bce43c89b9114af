package netplan

import "fmt"

// AddressReader is the slice of the storage layer the allocator needs: the
// addresses already held by devices of one project within a subnet.
type AddressReader interface {
	ProjectAddressesInSubnet(projectID, subnetPrefix string) ([]string, error)
}

// AllocationResult is what the allocator hands back to the caller. It is not
// persisted here; the caller writes it onto the device being saved.
type AllocationResult struct {
	Address    string     `json:"address"`
	VLANID     int        `json:"vlan_id"`
	Warning    string     `json:"warning,omitempty"`
	Resolution Resolution `json:"resolution"`
}

// Allocator picks the next free address for a device out of the pool entry
// its type or category resolves to
type Allocator struct {
	registry *Registry
	addrs    AddressReader
}

// NewAllocator creates an allocator over the given registry and address reader
func NewAllocator(registry *Registry, addrs AddressReader) *Allocator {
	return &Allocator{registry: registry, addrs: addrs}
}

// NextAddress returns the first unused address in the resolved pool entry's
// range, ascending. When the range is exhausted it degrades to the entry's
// fallback address with a non-empty warning; the caller decides how to
// surface that to a human. The scan has no side effects.
func (a *Allocator) NextAddress(projectID, deviceType, category string) (AllocationResult, error) {
	entry, resolution := a.registry.Lookup(deviceType, category)

	used, err := a.addrs.ProjectAddressesInSubnet(projectID, entry.Subnet+".")
	if err != nil {
		return AllocationResult{}, fmt.Errorf("reading project addresses: %w", err)
	}

	inUse := make(map[string]struct{}, len(used))
	for _, addr := range used {
		inUse[addr] = struct{}{}
	}

	for i := entry.RangeStart; i <= entry.RangeEnd; i++ {
		candidate := entry.Address(i)
		if _, taken := inUse[candidate]; !taken {
			return AllocationResult{
				Address:    candidate,
				VLANID:     entry.VLANID,
				Resolution: resolution,
			}, nil
		}
	}

	return AllocationResult{
		Address:    entry.FallbackAddress,
		VLANID:     entry.VLANID,
		Resolution: resolution,
		Warning: fmt.Sprintf("address range %s.%d-%d is exhausted, returning fallback %s which may collide",
			entry.Subnet, entry.RangeStart, entry.RangeEnd, entry.FallbackAddress),
	}, nil
}
