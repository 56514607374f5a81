package record

import "fmt"

// PokemonSize is the on-disk width of a pokédex record in bytes.
const PokemonSize = 244

// Pokemon is one pokédex entry.
//
// Layout (offset, width):
//
//	0   4   ID
//	4   50  Name
//	54  20  Type1
//	74  20  Type2
//	94  4   Total
//	98  4   HP
//	102 4   Attack
//	106 4   Defense
//	110 4   SpAtk
//	114 4   SpDef
//	118 4   Speed
//	122 4   Generation
//	126 4   Legendary
//	130 20  Color
//	150 4   HasGender
//	154 4   PrMale
//	158 20  EggGroup1
//	178 20  EggGroup2
//	198 4   HasMegaEvolution
//	202 4   HeightM
//	206 4   WeightKG
//	210 4   CatchRate
//	214 30  BodyStyle
type Pokemon struct {
	ID               int32
	Name             string
	Type1            string
	Type2            string
	Total            int32
	HP               int32
	Attack           int32
	Defense          int32
	SpAtk            int32
	SpDef            int32
	Speed            int32
	Generation       int32
	Legendary        int32
	Color            string
	HasGender        int32
	PrMale           float32
	EggGroup1        string
	EggGroup2        string
	HasMegaEvolution int32
	HeightM          float32
	WeightKG         float32
	CatchRate        int32
	BodyStyle        string
}

func (p *Pokemon) Encode() ([]byte, error) {
	buf := make([]byte, PokemonSize)
	off := 0
	off = putInt32(buf, off, p.ID)
	off = putString(buf, off, p.Name, nameLen)
	off = putString(buf, off, p.Type1, typeLen)
	off = putString(buf, off, p.Type2, typeLen)
	off = putInt32(buf, off, p.Total)
	off = putInt32(buf, off, p.HP)
	off = putInt32(buf, off, p.Attack)
	off = putInt32(buf, off, p.Defense)
	off = putInt32(buf, off, p.SpAtk)
	off = putInt32(buf, off, p.SpDef)
	off = putInt32(buf, off, p.Speed)
	off = putInt32(buf, off, p.Generation)
	off = putInt32(buf, off, p.Legendary)
	off = putString(buf, off, p.Color, colorLen)
	off = putInt32(buf, off, p.HasGender)
	off = putFloat32(buf, off, p.PrMale)
	off = putString(buf, off, p.EggGroup1, eggGroupLen)
	off = putString(buf, off, p.EggGroup2, eggGroupLen)
	off = putInt32(buf, off, p.HasMegaEvolution)
	off = putFloat32(buf, off, p.HeightM)
	off = putFloat32(buf, off, p.WeightKG)
	off = putInt32(buf, off, p.CatchRate)
	putString(buf, off, p.BodyStyle, bodyLen)
	return buf, nil
}

func (p *Pokemon) Decode(data []byte) error {
	if len(data) != PokemonSize {
		return fmt.Errorf("pokemon record: expected %d bytes, got %d", PokemonSize, len(data))
	}
	off := 0
	p.ID, off = getInt32(data, off)
	p.Name, off = getString(data, off, nameLen)
	p.Type1, off = getString(data, off, typeLen)
	p.Type2, off = getString(data, off, typeLen)
	p.Total, off = getInt32(data, off)
	p.HP, off = getInt32(data, off)
	p.Attack, off = getInt32(data, off)
	p.Defense, off = getInt32(data, off)
	p.SpAtk, off = getInt32(data, off)
	p.SpDef, off = getInt32(data, off)
	p.Speed, off = getInt32(data, off)
	p.Generation, off = getInt32(data, off)
	p.Legendary, off = getInt32(data, off)
	p.Color, off = getString(data, off, colorLen)
	p.HasGender, off = getInt32(data, off)
	p.PrMale, off = getFloat32(data, off)
	p.EggGroup1, off = getString(data, off, eggGroupLen)
	p.EggGroup2, off = getString(data, off, eggGroupLen)
	p.HasMegaEvolution, off = getInt32(data, off)
	p.HeightM, off = getFloat32(data, off)
	p.WeightKG, off = getFloat32(data, off)
	p.CatchRate, off = getInt32(data, off)
	p.BodyStyle, _ = getString(data, off, bodyLen)
	return nil
}
