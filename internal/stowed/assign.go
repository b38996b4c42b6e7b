package stowed

import (
	"fmt"

	"github.com/genie68/a68run/internal/gc"
	"github.com/genie68/a68run/internal/value"
)

// ScopeError is raised when a reference would outlive the name it is
// stored into (§4.4 "Scope check", §7 scope-dynamic / scope-transient,
// §8 property 1).
type ScopeError struct {
	SourceLevel, TargetLevel int
	Transient                bool
}

func (e *ScopeError) Error() string {
	if e.Transient {
		return fmt.Sprintf("transient name escapes to level %d from level %d", e.TargetLevel, e.SourceLevel)
	}
	return fmt.Sprintf("scope violation: source level %d outlives target level %d", e.SourceLevel, e.TargetLevel)
}

// CheckScope enforces §8 property 1: scope(source) must be <=
// scope(target). A source whose owning range is nested deeper
// (higher Level) than the target cannot be stored into it.
func CheckScope(source, target value.Reference) error {
	if source.Segment == value.SegmentNil {
		return nil
	}
	if source.Level > target.Level {
		return &ScopeError{SourceLevel: source.Level, TargetLevel: target.Level}
	}
	return nil
}

// deepCopy clones a stowed value's bytes (and, recursively, any nested
// row/struct/union payload) to a fresh heap allocation (§4.4 "deep-copy
// the source descriptor (and its element block) to a fresh heap
// block").
func deepCopy(h *gc.Heap, mode *value.Mode, ref value.Reference) (value.Reference, error) {
	if ref.IsNil() {
		return value.Nil, nil
	}
	switch mode.Kind {
	case value.KindRow, value.KindFlexRow:
		d, rowMode, err := readDescriptor(h, ref)
		if err != nil {
			return value.Nil, err
		}
		elemSize := rowMode.Elem.Size
		total := int64(1)
		for _, t := range d.Tuples {
			total *= t.Upper - t.Lower + 1
		}
		if total < 0 {
			total = 0
		}
		srcArray := h.Resolve(d.ArrayRef.Handle)

		h.UpGarbageSema()
		defer h.DownGarbageSema()

		newArrayID, err := h.Alloc(int(total)*elemSize, rowMode.Elem)
		if err != nil {
			return value.Nil, err
		}
		dstArray := h.Resolve(newArrayID)
		if rowMode.Elem.Stowed() {
			for i := int64(0); i < total; i++ {
				srcOff := int(d.SliceOff) + int(i)*elemSize + int(d.FieldOff)
				elemRef := value.GetReference(srcArray, srcOff)
				newElemRef, err := deepCopy(h, rowMode.Elem, elemRef)
				if err != nil {
					return value.Nil, err
				}
				value.PutReference(dstArray, int(i)*elemSize, newElemRef)
			}
		} else {
			copy(dstArray, srcArray[int(d.SliceOff)+int(d.FieldOff):int(d.SliceOff)+int(d.FieldOff)+int(total)*elemSize])
		}

		newMode := &value.Mode{Kind: mode.Kind, Elem: rowMode.Elem, Dims: rowMode.Dims, Flex: rowMode.Flex}
		newMode.Size = newMode.DescriptorSize()
		descID, err := h.Alloc(newMode.Size, newMode)
		if err != nil {
			return value.Nil, err
		}
		value.PutRowDescriptor(h.Resolve(descID), value.RowDescriptor{
			Dims:     d.Dims,
			SliceOff: 0,
			FieldOff: 0,
			ArrayRef: value.Reference{Segment: value.SegmentHeap, Handle: newArrayID},
			Tuples:   d.Tuples,
		})
		return value.Reference{Segment: value.SegmentHeap, Handle: descID}, nil

	case value.KindStruct:
		info := h.HandleInfo(ref.Handle)
		newID, err := h.Alloc(info.Size, mode)
		if err != nil {
			return value.Nil, err
		}
		src := h.Resolve(ref.Handle)
		dst := h.Resolve(newID)
		copy(dst, src)
		for _, f := range mode.Fields {
			if !f.Mode.ReferenceShaped() {
				continue
			}
			fieldRef := value.GetReference(src, f.Offset)
			newFieldRef, err := deepCopy(h, f.Mode, fieldRef)
			if err != nil {
				return value.Nil, err
			}
			value.PutReference(dst, f.Offset, newFieldRef)
		}
		return value.Reference{Segment: value.SegmentHeap, Handle: newID}, nil

	case value.KindUnion:
		info := h.HandleInfo(ref.Handle)
		src := h.Resolve(ref.Handle)
		tag := value.GetUnionTag(src, 0)
		newID, err := h.Alloc(info.Size, mode)
		if err != nil {
			return value.Nil, err
		}
		dst := h.Resolve(newID)
		copy(dst, src)
		if tag >= 0 && tag < len(mode.Variants) && mode.Variants[tag].ReferenceShaped() {
			variant := mode.Variants[tag]
			payloadRef := value.GetReference(src, value.UnionTagWidth)
			newPayload, err := deepCopy(h, variant, payloadRef)
			if err != nil {
				return value.Nil, err
			}
			value.PutReference(dst, value.UnionTagWidth, newPayload)
		}
		return value.Reference{Segment: value.SegmentHeap, Handle: newID}, nil

	default:
		return ref, nil
	}
}

// AssignTarget is where Assign writes: a byte-addressable name plus the
// bytes backing it (already resolved by the caller through frame/heap
// lookup).
type AssignTarget struct {
	Buf   []byte
	Ref   value.Reference // the name being assigned to, for scope checks
	Level int
}

// Assign implements §4.4 "Assign to a name of STOWED mode": flex/string
// sources are deep-copied fresh; matching-shape non-flex rows are
// copied element-by-element into the existing block; structs
// recursively deep-copy row fields; unions copy through the active
// variant.
func Assign(h *gc.Heap, mode *value.Mode, target AssignTarget, source value.Reference, sourceIsExprStackBuilt bool) error {
	if err := CheckScope(value.Reference{Level: sourceScopeLevel(source)}, value.Reference{Level: target.Level}); err != nil {
		return err
	}
	switch mode.Kind {
	case value.KindFlexRow:
		newRef, err := deepCopy(h, mode, source)
		if err != nil {
			return err
		}
		value.PutReference(target.Buf, 0, newRef)
		return nil
	case value.KindRow:
		if sourceIsExprStackBuilt {
			newRef, err := deepCopy(h, mode, source)
			if err != nil {
				return err
			}
			value.PutReference(target.Buf, 0, newRef)
			return nil
		}
		targetRef := value.GetReference(target.Buf, 0)
		return assignMatchingRows(h, mode, targetRef, source)
	case value.KindStruct:
		newRef, err := deepCopy(h, mode, source)
		if err != nil {
			return err
		}
		// Every STRUCT name, whether a LOC frame slot or a STRUCT field,
		// holds a Reference to its heap-allocated payload (Mode.ReferenceShaped)
		// rather than the struct's bytes inline.
		value.PutReference(target.Buf, 0, newRef)
		return nil
	case value.KindUnion:
		newRef, err := deepCopy(h, mode, source)
		if err != nil {
			return err
		}
		value.PutReference(target.Buf, 0, newRef)
		return nil
	default:
		return fmt.Errorf("Assign called on non-stowed mode %s", mode.Name)
	}
}

func sourceScopeLevel(r value.Reference) int { return r.Level }

// assignMatchingRows implements the non-flex, matching-bounds
// element-by-element copy path (§4.4).
func assignMatchingRows(h *gc.Heap, mode *value.Mode, target, source value.Reference) error {
	td, _, err := readDescriptor(h, target)
	if err != nil {
		return err
	}
	sd, _, err := readDescriptor(h, source)
	if err != nil {
		return err
	}
	if len(td.Tuples) != len(sd.Tuples) {
		return &DifferentBoundsError{Target: td.Tuples, Source: sd.Tuples}
	}
	total := int64(1)
	for i := range td.Tuples {
		tn := td.Tuples[i].Upper - td.Tuples[i].Lower + 1
		sn := sd.Tuples[i].Upper - sd.Tuples[i].Lower + 1
		if tn != sn {
			return &DifferentBoundsError{Target: td.Tuples, Source: sd.Tuples}
		}
		total *= tn
	}
	elemSize := mode.Elem.Size
	dst := h.Resolve(td.ArrayRef.Handle)
	src := h.Resolve(sd.ArrayRef.Handle)
	for i := int64(0); i < total; i++ {
		dOff := int(td.SliceOff) + int(i)*elemSize + int(td.FieldOff)
		sOff := int(sd.SliceOff) + int(i)*elemSize + int(sd.FieldOff)
		if mode.Elem.Stowed() {
			elemRef := value.GetReference(src, sOff)
			newElemRef, err := deepCopy(h, mode.Elem, elemRef)
			if err != nil {
				return err
			}
			value.PutReference(dst, dOff, newElemRef)
		} else {
			copy(dst[dOff:dOff+elemSize], src[sOff:sOff+elemSize])
		}
	}
	return nil
}
