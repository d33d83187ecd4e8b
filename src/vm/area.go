// Package vm composes the physical-page primitives in package mem into
// address spaces: a MapArea is a contiguous run of virtual pages sharing
// one mapping strategy and permission set, and a MemorySet is the page
// table plus the areas currently mapped through it.
package vm

import (
	"mem"
	"util"
)

// MapType_t selects how a MapArea_t's virtual pages are backed.
type MapType_t int

const (
	// Identical maps a VPN directly onto the physical page number with
	// the same numeric value — used for kernel sections that already
	// run at their physical address.
	Identical MapType_t = iota
	// Framed backs each VPN with a freshly allocated physical frame.
	Framed
)

// MapPermission_t holds the R/W/X/U bits of an area, using the same
// bit positions as mem.PTEFlags_t so they can be passed straight
// through to PageTable_t.Map.
type MapPermission_t = mem.PTEFlags_t

const (
	PermR = mem.PteR
	PermW = mem.PteW
	PermX = mem.PteX
	PermU = mem.PteU
)

// MapArea_t is one contiguous range of virtual pages mapped with a
// single MapType_t and MapPermission_t.
type MapArea_t struct {
	VPNRange    mem.VPNRange_t
	MapType     MapType_t
	MapPerm     MapPermission_t
	dataFrames  map[mem.VirtPageNum_t]mem.FrameTracker_t
}

// NewMapArea builds an area spanning [startVA, endVA), floor/ceil
// aligned to page boundaries the same way the frame allocator aligns
// physical ranges.
func NewMapArea(startVA, endVA mem.VirtAddr_t, mapType MapType_t, perm MapPermission_t) MapArea_t {
	return MapArea_t{
		VPNRange:   mem.NewVPNRange(startVA.Floor(), endVA.Ceil()),
		MapType:    mapType,
		MapPerm:    perm,
		dataFrames: make(map[mem.VirtPageNum_t]mem.FrameTracker_t),
	}
}

// Overlaps reports whether other shares any virtual page with this
// area. The predicate is symmetric, so it is named for what it
// computes rather than a one-directional verb like "include".
func (a *MapArea_t) Overlaps(other mem.VPNRange_t) bool {
	return a.VPNRange.Overlaps(other)
}

// sameRange reports whether other spans exactly this area's range,
// used by Munmap to find the area a request names.
func (a *MapArea_t) sameRange(other mem.VPNRange_t) bool {
	return a.VPNRange.Equal(other)
}

// MapOne maps a single page of the area into pt, allocating a backing
// frame for Framed areas.
func (a *MapArea_t) MapOne(pt *mem.PageTable_t, vpn mem.VirtPageNum_t) {
	var ppn mem.PhysPageNum_t
	switch a.MapType {
	case Identical:
		ppn = mem.PhysPageNum_t(vpn)
	case Framed:
		frame, ok := mem.FrameAlloc()
		if !ok {
			panic("vm: MapOne: out of physical frames")
		}
		ppn = frame.PPN
		a.dataFrames[vpn] = frame
	default:
		panic("vm: MapOne: unknown map type")
	}
	pt.Map(vpn, ppn, a.MapPerm)
}

// UnmapOne removes a single page's mapping from pt and releases its
// backing frame, if any.
func (a *MapArea_t) UnmapOne(pt *mem.PageTable_t, vpn mem.VirtPageNum_t) {
	if a.MapType == Framed {
		if f, ok := a.dataFrames[vpn]; ok {
			f.Drop()
			delete(a.dataFrames, vpn)
		}
	}
	pt.Unmap(vpn)
}

// Map maps every page in the area's range into pt.
func (a *MapArea_t) Map(pt *mem.PageTable_t) {
	a.VPNRange.Each(func(vpn mem.VirtPageNum_t) {
		a.MapOne(pt, vpn)
	})
}

// Unmap unmaps every page in the area's range from pt.
func (a *MapArea_t) Unmap(pt *mem.PageTable_t) {
	a.VPNRange.Each(func(vpn mem.VirtPageNum_t) {
		a.UnmapOne(pt, vpn)
	})
}

// CopyData copies data into the area's backing frames, starting at the
// first page of the range. The area must be Framed and its pages must
// already be mapped; data need not be a multiple of the page size.
func (a *MapArea_t) CopyData(pt *mem.PageTable_t, data []byte) {
	if a.MapType != Framed {
		panic("vm: CopyData: area is not Framed")
	}
	start := 0
	vpn := a.VPNRange.L
	for start < len(data) {
		end := util.Min(start+mem.PageSize, len(data))
		src := data[start:end]
		pte, ok := pt.Translate(vpn)
		if !ok {
			panic("vm: CopyData: destination page not mapped")
		}
		dst := mem.PageBytes(pte.PPN())
		copy(dst[:len(src)], src)
		start = end
		vpn++
	}
}
