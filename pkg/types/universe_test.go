package types

import "testing"

func newTestUniverse() *Universe {
	return NewUniverse(PointerInfo{Size: 8, Align: 8})
}

func TestUniquing(t *testing.T) {
	u := newTestUniverse()

	a1 := u.PtrTo(u.Primitive(I4))
	a2 := u.PtrTo(u.Primitive(I4))
	if a1 != a2 {
		t.Errorf("PtrTo(i4) constructed twice did not unique")
	}

	s1 := u.StructOf([]*Type{u.Primitive(I4), u.Primitive(I8)})
	s2 := u.StructOf([]*Type{u.Primitive(I4), u.Primitive(I8)})
	if s1 != s2 {
		t.Errorf("StructOf with equal members did not unique")
	}

	s3 := u.StructOf([]*Type{u.Primitive(I8), u.Primitive(I4)})
	if s1 == s3 {
		t.Errorf("StructOf with different member order unique'd incorrectly")
	}
}

func TestAliasNotUniqued(t *testing.T) {
	u := newTestUniverse()
	i8 := u.Primitive(I8)

	a1 := u.AddAlias("size_t", i8)
	a2 := u.AddAlias("size_t", i8)
	if a1 == a2 {
		t.Errorf("two add_alias calls with equal inputs should not unique")
	}

	got, ok := u.ResolveAlias("size_t")
	if !ok || got != a2 {
		t.Errorf("ResolveAlias should return the most recently added alias")
	}
}

func TestResolveIdempotent(t *testing.T) {
	u := newTestUniverse()
	i4 := u.Primitive(I4)
	alias := u.AddAlias("myint", i4)

	once := u.Resolve(alias)
	twice := u.Resolve(once)
	if once != twice {
		t.Errorf("Resolve is not idempotent: %v != %v", once, twice)
	}
	if once != i4 {
		t.Errorf("Resolve(alias) = %v, want %v", once, i4)
	}
}

func TestArrayOfFunctionRejected(t *testing.T) {
	u := newTestUniverse()
	fn, err := u.FuncOf(u.Void(), nil, false)
	if err != nil {
		t.Fatalf("FuncOf: %v", err)
	}
	if _, err := u.ArrayOf(fn, 4); err == nil {
		t.Errorf("ArrayOf(function) should be rejected")
	}
}

func TestFunctionReturningArrayRejected(t *testing.T) {
	u := newTestUniverse()
	arr, err := u.ArrayOf(u.Primitive(I4), 4)
	if err != nil {
		t.Fatalf("ArrayOf: %v", err)
	}
	if _, err := u.FuncOf(arr, nil, false); err == nil {
		t.Errorf("FuncOf(returning array) should be rejected")
	}
}

func TestStructSizeAlignDivisible(t *testing.T) {
	u := newTestUniverse()
	s := u.StructOf([]*Type{u.Primitive(I1), u.Primitive(I8), u.Primitive(I2)})
	sa := u.SizeAlign(s)
	if sa.Size%sa.Align != 0 {
		t.Errorf("struct size %d not divisible by align %d", sa.Size, sa.Align)
	}
}

func TestArraySizeAlign(t *testing.T) {
	u := newTestUniverse()
	elem := u.Primitive(I4)
	arr, err := u.ArrayOf(elem, 5)
	if err != nil {
		t.Fatalf("ArrayOf: %v", err)
	}
	sa := u.SizeAlign(arr)
	elemSA := u.SizeAlign(elem)
	if sa.Size != elemSA.Size*5 {
		t.Errorf("array size = %d, want %d", sa.Size, elemSA.Size*5)
	}
	if sa.Align != elemSA.Align {
		t.Errorf("array align = %d, want %d", sa.Align, elemSA.Align)
	}
}

func TestCanReturnTo(t *testing.T) {
	u := newTestUniverse()
	s := u.StructOf([]*Type{u.Primitive(I4), u.Primitive(I4)})
	ptrToS := u.PtrTo(s)

	if !u.CanReturnTo(ptrToS, s) {
		t.Errorf("pointer to struct should be returnable to that struct")
	}
	if !u.CanReturnTo(s, s) {
		t.Errorf("equal types should always be returnable")
	}
	if u.CanReturnTo(u.Primitive(I4), s) {
		t.Errorf("i4 should not be returnable to struct")
	}
}

func TestMemberOffsetsPadded(t *testing.T) {
	u := newTestUniverse()
	// {i1, i8} needs 7 bytes of padding before the i8 member.
	s := u.StructOf([]*Type{u.Primitive(I1), u.Primitive(I8)})
	off := u.StructMemberOffset(s, 1)
	if off != 8 {
		t.Errorf("offset of second member = %d, want 8", off)
	}
}
