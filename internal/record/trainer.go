package record

import "fmt"

// TrainerSize is the on-disk width of a trainer record in bytes.
const TrainerSize = 82

// Trainer is one mutable roster entry. Party holds the referenced pokédex
// IDs; its length is the persisted count and never exceeds MaxPartySize.
//
// Layout (offset, width):
//
//	0  4   ID
//	4  50  Name
//	54 24  Party (6 slots)
//	78 4   Count
type Trainer struct {
	ID    int32
	Name  string
	Party []int32
}

func (t *Trainer) Encode() ([]byte, error) {
	if len(t.Party) > MaxPartySize {
		return nil, fmt.Errorf("trainer record: party of %d exceeds %d slots", len(t.Party), MaxPartySize)
	}
	buf := make([]byte, TrainerSize)
	off := 0
	off = putInt32(buf, off, t.ID)
	// Keep the final name byte NUL so readers that treat the field as a
	// C string never run past it.
	name := t.Name
	if len(name) > nameLen-1 {
		name = name[:nameLen-1]
	}
	off = putString(buf, off, name, nameLen)
	for i := 0; i < MaxPartySize; i++ {
		var id int32
		if i < len(t.Party) {
			id = t.Party[i]
		}
		off = putInt32(buf, off, id)
	}
	putInt32(buf, off, int32(len(t.Party)))
	return buf, nil
}

func (t *Trainer) Decode(data []byte) error {
	if len(data) != TrainerSize {
		return fmt.Errorf("trainer record: expected %d bytes, got %d", TrainerSize, len(data))
	}
	off := 0
	t.ID, off = getInt32(data, off)
	t.Name, off = getString(data, off, nameLen)
	slots := make([]int32, MaxPartySize)
	for i := range slots {
		slots[i], off = getInt32(data, off)
	}
	count, _ := getInt32(data, off)
	if count < 0 {
		count = 0
	}
	if count > MaxPartySize {
		count = MaxPartySize
	}
	t.Party = slots[:count:count]
	return nil
}
