package mem

import (
	"fmt"

	"util"
)

/// PhysAddr_t is a physical address.
type PhysAddr_t uint64

/// VirtAddr_t is a virtual address.
type VirtAddr_t uint64

/// PhysPageNum_t is a physical page number (a physical address shifted
/// right by PageShift).
type PhysPageNum_t uint64

/// VirtPageNum_t is a virtual page number.
type VirtPageNum_t uint64

/// PageOffset returns the in-page byte offset of pa.
func (pa PhysAddr_t) PageOffset() uint64 {
	return uint64(pa) & PageOffsetMask
}

/// Aligned reports whether pa falls on a page boundary.
func (pa PhysAddr_t) Aligned() bool {
	return pa.PageOffset() == 0
}

/// Floor rounds pa down to its containing page number.
func (pa PhysAddr_t) Floor() PhysPageNum_t {
	return PhysPageNum_t(uint64(pa) >> PageShift)
}

/// Ceil rounds pa up to the page number above it. Rounding up via
/// util.Roundup rather than the more common (v-1+PAGE_SIZE)>>12
/// formula sidesteps that formula's underflow at v==0 for free:
/// Ceil(0) == 0.
func (pa PhysAddr_t) Ceil() PhysPageNum_t {
	return PhysPageNum_t(util.Roundup(uint64(pa), uint64(PageSize)) >> PageShift)
}

/// PageOffset returns the in-page byte offset of va.
func (va VirtAddr_t) PageOffset() uint64 {
	return uint64(va) & PageOffsetMask
}

/// Aligned reports whether va falls on a page boundary.
func (va VirtAddr_t) Aligned() bool {
	return va.PageOffset() == 0
}

/// Floor rounds va down to its containing page number.
func (va VirtAddr_t) Floor() VirtPageNum_t {
	return VirtPageNum_t(uint64(va) >> PageShift)
}

/// Ceil rounds va up to the page number above it; see PhysAddr_t.Ceil.
func (va VirtAddr_t) Ceil() VirtPageNum_t {
	return VirtPageNum_t(util.Roundup(uint64(va), uint64(PageSize)) >> PageShift)
}

/// PPNToPA converts a physical page number to its base physical address.
func PPNToPA(ppn PhysPageNum_t) PhysAddr_t {
	return PhysAddr_t(uint64(ppn) << PageShift)
}

/// PAToPPN converts pa to a physical page number. pa must be page
/// aligned; this is a programming error otherwise.
func PAToPPN(pa PhysAddr_t) PhysPageNum_t {
	if !pa.Aligned() {
		panic(fmt.Sprintf("mem: PAToPPN: unaligned address %#x", uint64(pa)))
	}
	return PhysPageNum_t(uint64(pa) >> PageShift)
}

/// VPNToVA converts a virtual page number to its base virtual address.
func VPNToVA(vpn VirtPageNum_t) VirtAddr_t {
	return VirtAddr_t(uint64(vpn) << PageShift)
}

/// VAToVPN converts va to a virtual page number. va must be page
/// aligned; this is a programming error otherwise.
func VAToVPN(va VirtAddr_t) VirtPageNum_t {
	if !va.Aligned() {
		panic(fmt.Sprintf("mem: VAToVPN: unaligned address %#x", uint64(va)))
	}
	return VirtPageNum_t(uint64(va) >> PageShift)
}

/// Indexes splits vpn into its three SV39 page-table indices, most
/// significant first: idx[0] selects the root-level entry, idx[2] the
/// leaf.
func (vpn VirtPageNum_t) Indexes() [3]uint64 {
	v := uint64(vpn)
	var idx [3]uint64
	idx[2] = v & 0x1ff
	idx[1] = (v >> 9) & 0x1ff
	idx[0] = (v >> 18) & 0x1ff
	return idx
}

/// String renders vpn for diagnostics.
func (vpn VirtPageNum_t) String() string {
	return fmt.Sprintf("VPN:%#x", uint64(vpn))
}

/// String renders ppn for diagnostics.
func (ppn PhysPageNum_t) String() string {
	return fmt.Sprintf("PPN:%#x", uint64(ppn))
}

/// String renders va for diagnostics.
func (va VirtAddr_t) String() string {
	return fmt.Sprintf("VA:%#x", uint64(va))
}

/// String renders pa for diagnostics.
func (pa PhysAddr_t) String() string {
	return fmt.Sprintf("PA:%#x", uint64(pa))
}

/// VPNRange_t is a half-open range of virtual page numbers [L, R). It
/// is a programming error to construct one with L > R.
type VPNRange_t struct {
	L, R VirtPageNum_t
}

/// NewVPNRange builds the half-open range [l, r). It panics if l > r;
/// an inverted range is always a caller bug, never a valid empty range.
func NewVPNRange(l, r VirtPageNum_t) VPNRange_t {
	if l > r {
		panic(fmt.Sprintf("mem: NewVPNRange: start %v > end %v", l, r))
	}
	return VPNRange_t{L: l, R: r}
}

/// Len returns the number of VPNs covered by the range.
func (vr VPNRange_t) Len() uint64 {
	return uint64(vr.R) - uint64(vr.L)
}

/// Overlaps reports whether vr and other share any VPN. The predicate
/// is symmetric, not a containment test, hence the name.
func (vr VPNRange_t) Overlaps(other VPNRange_t) bool {
	return (vr.L <= other.L && other.L < vr.R) ||
		(other.L <= vr.L && vr.L < other.R)
}

/// Equal reports whether vr and other describe the identical range.
func (vr VPNRange_t) Equal(other VPNRange_t) bool {
	return vr.L == other.L && vr.R == other.R
}

/// Each calls fn once for every VPN in [L, R), in increasing order.
func (vr VPNRange_t) Each(fn func(VirtPageNum_t)) {
	for v := vr.L; v < vr.R; v++ {
		fn(v)
	}
}

/// String renders vr for diagnostics.
func (vr VPNRange_t) String() string {
	return fmt.Sprintf("VPNRange[%v, %v)", vr.L, vr.R)
}
