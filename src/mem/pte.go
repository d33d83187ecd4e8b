package mem

import "fmt"

/// PTEFlags_t holds the low 8 permission/state bits of a page table
/// entry.
type PTEFlags_t uint8

const (
	/// PteV marks a PTE present.
	PteV PTEFlags_t = 1 << 0
	/// PteR marks a page readable.
	PteR PTEFlags_t = 1 << 1
	/// PteW marks a page writable.
	PteW PTEFlags_t = 1 << 2
	/// PteX marks a page executable.
	PteX PTEFlags_t = 1 << 3
	/// PteU marks a page user-accessible.
	PteU PTEFlags_t = 1 << 4
	/// PteG marks a global page.
	PteG PTEFlags_t = 1 << 5
	/// PteA marks a page accessed.
	PteA PTEFlags_t = 1 << 6
	/// PteD marks a page dirty.
	PteD PTEFlags_t = 1 << 7
)

/// Has reports whether all bits of want are set in f.
func (f PTEFlags_t) Has(want PTEFlags_t) bool {
	return f&want == want
}

/// PageTableEntry_t is a single 64-bit SV39 page table entry: a 44-bit
/// PPN in bits [53:10] and an 8-bit flag word in bits [7:0].
type PageTableEntry_t uint64

/// NewPTE packs ppn and flags into a page table entry.
func NewPTE(ppn PhysPageNum_t, flags PTEFlags_t) PageTableEntry_t {
	return PageTableEntry_t(uint64(ppn)<<10 | uint64(flags))
}

/// PPN extracts the physical page number from the entry.
func (pte PageTableEntry_t) PPN() PhysPageNum_t {
	return PhysPageNum_t((uint64(pte) >> 10) & ((1 << PpnWidthSv39) - 1))
}

/// Flags extracts the permission/state bits from the entry.
func (pte PageTableEntry_t) Flags() PTEFlags_t {
	return PTEFlags_t(uint64(pte) & 0xff)
}

/// Valid reports whether the V bit is set.
func (pte PageTableEntry_t) Valid() bool {
	return pte.Flags().Has(PteV)
}

/// Readable reports whether the R bit is set.
func (pte PageTableEntry_t) Readable() bool {
	return pte.Flags().Has(PteR)
}

/// Writable reports whether the W bit is set.
func (pte PageTableEntry_t) Writable() bool {
	return pte.Flags().Has(PteW)
}

/// Executable reports whether the X bit is set.
func (pte PageTableEntry_t) Executable() bool {
	return pte.Flags().Has(PteX)
}

/// String renders pte for diagnostics.
func (pte PageTableEntry_t) String() string {
	return fmt.Sprintf("PTE:%#x", uint64(pte))
}

const ptesPerPage = PageSize / 8

/// pteArray returns the 512-entry PTE array stored in the page backing
/// ppn, viewed as a page table node.
func pteArray(ppn PhysPageNum_t) []PageTableEntry_t {
	b := PageBytes(ppn)
	out := make([]PageTableEntry_t, ptesPerPage)
	for i := 0; i < ptesPerPage; i++ {
		var v uint64
		for j := 0; j < 8; j++ {
			v |= uint64(b[i*8+j]) << (8 * uint(j))
		}
		out[i] = PageTableEntry_t(v)
	}
	return out
}

func writePTE(ppn PhysPageNum_t, idx uint64, pte PageTableEntry_t) {
	b := PageBytes(ppn)
	off := int(idx) * 8
	v := uint64(pte)
	for j := 0; j < 8; j++ {
		b[off+j] = byte(v >> (8 * uint(j)))
	}
}

func readPTE(ppn PhysPageNum_t, idx uint64) PageTableEntry_t {
	b := PageBytes(ppn)
	off := int(idx) * 8
	var v uint64
	for j := 0; j < 8; j++ {
		v |= uint64(b[off+j]) << (8 * uint(j))
	}
	return PageTableEntry_t(v)
}

/// PageTable_t is a three-level SV39 page table. It owns its root
/// frame plus every intermediate frame it allocated while creating
/// walk paths; both are released when Drop is called. A PageTable_t
/// built by FromToken is a non-owning view and frees nothing.
type PageTable_t struct {
	rootPPN PhysPageNum_t
	frames  []FrameTracker_t
	owning  bool
}

/// NewPageTable allocates a fresh root frame and returns an empty page
/// table, or false if no frame is available.
func NewPageTable() (PageTable_t, bool) {
	root, ok := FrameAlloc()
	if !ok {
		return PageTable_t{}, false
	}
	return PageTable_t{rootPPN: root.PPN, frames: []FrameTracker_t{root}, owning: true}, true
}

/// FromToken builds a non-owning view of the address space selected by
/// an satp token, for translating another task's pages without taking
/// part in its lifetime. The view must not outlive the real
/// MemorySet it shadows.
func FromToken(token uint64) PageTable_t {
	return PageTable_t{rootPPN: PhysPageNum_t(token & ((1 << PpnWidthSv39) - 1))}
}

/// Token returns the satp value selecting this page table under SV39.
func (pt *PageTable_t) Token() uint64 {
	return Sv39Mode<<60 | uint64(pt.rootPPN)
}

// findPTECreate walks vpn's three indices from the root, allocating
// and linking intermediate frames as needed, and returns the leaf
// slot's (node PPN, index) so callers can both read and write it.
// found is false only when an intermediate allocation failed.
func (pt *PageTable_t) findPTECreate(vpn VirtPageNum_t) (node PhysPageNum_t, idx uint64, found bool) {
	idxs := vpn.Indexes()
	ppn := pt.rootPPN
	for level, i := range idxs {
		if level == 2 {
			return ppn, i, true
		}
		pte := readPTE(ppn, i)
		if !pte.Valid() {
			frame, ok := FrameAlloc()
			if !ok {
				return 0, 0, false
			}
			writePTE(ppn, i, NewPTE(frame.PPN, PteV))
			pt.frames = append(pt.frames, frame)
			ppn = frame.PPN
		} else {
			ppn = pte.PPN()
		}
	}
	panic("mem: findPTECreate: unreachable")
}

// findPTE is the read-only counterpart of findPTECreate: it returns
// ok=false as soon as it meets an invalid intermediate entry instead
// of creating one.
func (pt *PageTable_t) findPTE(vpn VirtPageNum_t) (node PhysPageNum_t, idx uint64, ok bool) {
	idxs := vpn.Indexes()
	ppn := pt.rootPPN
	for level, i := range idxs {
		if level == 2 {
			return ppn, i, true
		}
		pte := readPTE(ppn, i)
		if !pte.Valid() {
			return 0, 0, false
		}
		ppn = pte.PPN()
	}
	panic("mem: findPTE: unreachable")
}

/// Map installs a leaf mapping vpn -> ppn with the given flags (V is
/// ORed in automatically). It panics if vpn was already mapped or no
/// frame is available to create an intermediate level.
func (pt *PageTable_t) Map(vpn VirtPageNum_t, ppn PhysPageNum_t, flags PTEFlags_t) {
	node, idx, ok := pt.findPTECreate(vpn)
	if !ok {
		panic(fmt.Sprintf("mem: Map: out of frames walking to %v", vpn))
	}
	if readPTE(node, idx).Valid() {
		panic(fmt.Sprintf("mem: Map: %v is already mapped", vpn))
	}
	writePTE(node, idx, NewPTE(ppn, flags|PteV))
}

/// Unmap clears the leaf mapping for vpn. It panics if vpn was not
/// mapped. Intermediate frames created along the way are not freed;
/// they are reclaimed only when the whole PageTable_t is dropped. This
/// wastes some paging memory but keeps unmap O(1) and avoids having to
/// track per-node occupancy — a deliberate simplification, not a bug.
func (pt *PageTable_t) Unmap(vpn VirtPageNum_t) {
	node, idx, ok := pt.findPTECreate(vpn)
	if !ok {
		panic(fmt.Sprintf("mem: Unmap: out of frames walking to %v", vpn))
	}
	if !readPTE(node, idx).Valid() {
		panic(fmt.Sprintf("mem: Unmap: %v is not mapped", vpn))
	}
	writePTE(node, idx, 0)
}

/// Translate returns a copy of the leaf PTE for vpn, or false if any
/// level of the walk is unmapped.
func (pt *PageTable_t) Translate(vpn VirtPageNum_t) (PageTableEntry_t, bool) {
	node, idx, ok := pt.findPTE(vpn)
	if !ok {
		return 0, false
	}
	pte := readPTE(node, idx)
	if !pte.Valid() {
		return 0, false
	}
	return pte, true
}

/// Drop releases every frame this page table owns: the root plus any
/// intermediate frames allocated by Map/Unmap. A view built by
/// FromToken owns nothing and Drop is a no-op.
func (pt *PageTable_t) Drop() {
	if !pt.owning {
		return
	}
	for _, f := range pt.frames {
		f.Drop()
	}
	pt.frames = nil
}

/// TranslatedByteBuffer splits the user virtual range [ptr, ptr+ln)
/// at page boundaries and returns a byte slice into each backing
/// physical page, in order. Every page in the range must already be
/// mapped in the address space selected by token; an unmapped page is
/// a programming error (the caller is expected to have validated the
/// pointer, e.g. via a prior syscall check) and panics.
func TranslatedByteBuffer(token uint64, ptr uint64, ln uint64) [][]byte {
	pt := FromToken(token)
	var out [][]byte
	start := ptr
	end := ptr + ln
	for start < end {
		startVA := VirtAddr_t(start)
		vpn := startVA.Floor()
		pte, ok := pt.Translate(vpn)
		if !ok {
			panic(fmt.Sprintf("mem: TranslatedByteBuffer: %v not mapped", vpn))
		}
		ppn := pte.PPN()
		nextVA := VPNToVA(vpn + 1)
		segEnd := uint64(nextVA)
		if segEnd > end {
			segEnd = end
		}
		page := PageBytes(ppn)
		off := startVA.PageOffset()
		segLen := segEnd - start
		out = append(out, page[off:off+segLen])
		start = segEnd
	}
	return out
}
