package target

// Reg is a physical x86-64 register, named by its 64-bit form. Both
// linux-x86_64 and darwin-x86_64 follow the System V AMD64 calling
// convention; only the assembler-level conventions in Spec differ between
// them.
type Reg int

const (
	RAX Reg = iota
	RBX
	RCX
	RDX
	RSI
	RDI
	RBP
	RSP
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15
)

// Abi is the arch's register classification for argument passing, return
// values, caller-saved scratch use, and callee-saved preservation
// (the abi pass).
type Abi struct {
	ArgRegs      []Reg
	RetRegs      []Reg
	ScratchRegs  []Reg
	CalleeSaves  []Reg
}

// SysVAbi is the System V AMD64 ABI's integer/pointer register
// classification. Float argument/return classification (xmm0-7) is out of
// scope for the first release's register allocator, which handles
// integer and pointer values only.
func SysVAbi() Abi {
	return Abi{
		ArgRegs:     []Reg{RDI, RSI, RDX, RCX, R8, R9},
		RetRegs:     []Reg{RAX, RDX},
		ScratchRegs: []Reg{RAX, RCX, RDX, RSI, RDI, R8, R9, R10, R11},
		CalleeSaves: []Reg{RBX, R12, R13, R14, R15, RBP},
	}
}

func (r Reg) String() string {
	names := [...]string{"rax", "rbx", "rcx", "rdx", "rsi", "rdi", "rbp", "rsp",
		"r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15"}
	if int(r) < len(names) {
		return names[r]
	}
	return "?"
}

// NameForSize returns the register's name at the given operand width (1,
// 2, 4, or 8 bytes), grounded on the original's regs[][4] table
// (al/ax/eax/rax for RAX, etc.) for the eight legacy registers; the
// extended r8-r15 registers use a suffix scheme (r8b/r8w/r8d/r8) instead
// of a separate name table.
func (r Reg) NameForSize(size uint64) string {
	legacy := [...][4]string{
		{"al", "ax", "eax", "rax"},
		{"bl", "bx", "ebx", "rbx"},
		{"cl", "cx", "ecx", "rcx"},
		{"dl", "dx", "edx", "rdx"},
		{"sil", "si", "esi", "rsi"},
		{"dil", "di", "edi", "rdi"},
		{"bpl", "bp", "ebp", "rbp"},
		{"spl", "sp", "esp", "rsp"},
	}
	idx := sizeIndex(size)
	if int(r) < len(legacy) {
		return legacy[r][idx]
	}
	suffixes := [...]string{"b", "w", "d", ""}
	extNames := [...]string{"r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15"}
	return extNames[int(r)-len(legacy)] + suffixes[idx]
}

func sizeIndex(size uint64) int {
	switch size {
	case 1:
		return 0
	case 2:
		return 1
	case 4:
		return 2
	default:
		return 3
	}
}
