package demparser

import (
	"sort"

	"github.com/icza/tf2rep/bitstream"
	"github.com/icza/tf2rep/dem"
	"github.com/icza/tf2rep/dem/democore"
)

// sendPropBitCountBits is the width of the "number of bits" field that
// precedes every Int/Float/Vector/VectorXY property definition (§4.4).
const sendPropBitCountBits = 7

// arrayNumElementsBits is the width of the element-count field on an
// Array property definition.
const arrayNumElementsBits = 10

// parseDataTables decodes a DataTables packet payload (§4.4): the
// sequence of raw SendTables followed by the server-class list.
func parseDataTables(r *bitstream.Reader) (*dem.DataTablesPacket, error) {
	var tables []*dem.SendTableDef

	for {
		more, err := r.ReadBool()
		if err != nil {
			return nil, wrapErr(ErrReadError, "data tables has-more bit", err)
		}
		if !more {
			break
		}

		needsDecoder, err := r.ReadBool()
		if err != nil {
			return nil, wrapErr(ErrReadError, "send table needs_decoder", err)
		}
		name, err := r.ReadString()
		if err != nil {
			return nil, wrapErr(ErrReadError, "send table name", err)
		}
		propCount, err := r.ReadBits(10)
		if err != nil {
			return nil, wrapErr(ErrReadError, "send table prop count", err)
		}

		table := &dem.SendTableDef{Name: name, NeedsDecoder: needsDecoder}

		var arrayElement *dem.RawPropDef
		for i := uint64(0); i < propCount; i++ {
			prop, err := parsePropDef(r, name)
			if err != nil {
				return nil, err
			}

			switch {
			case prop.Flags.Has(dem.SendPropFlagInsideArray):
				if arrayElement != nil || prop.Flags.Has(dem.SendPropFlagChangesOften) {
					return nil, newErr(ErrInvalidSendProp, "ChangesOften on array element, or double InsideArray")
				}
				arrayElement = prop
			case arrayElement != nil:
				if prop.Type == dem.SendPropTypeArray {
					prop.Element = arrayElement
				} else {
					return nil, newErr(ErrInvalidSendProp, "InsideArray prop not followed by Array")
				}
				arrayElement = nil
				table.Props = append(table.Props, prop)
			default:
				table.Props = append(table.Props, prop)
			}
		}

		tables = append(tables, table)
	}

	classCount, err := r.ReadBits(16)
	if err != nil {
		return nil, wrapErr(ErrReadError, "server class count", err)
	}

	classes := make([]*dem.ServerClass, 0, classCount)
	for i := uint64(0); i < classCount; i++ {
		id, err := r.ReadBits(16)
		if err != nil {
			return nil, wrapErr(ErrReadError, "server class id", err)
		}
		cname, err := r.ReadString()
		if err != nil {
			return nil, wrapErr(ErrReadError, "server class name", err)
		}
		dtable, err := r.ReadString()
		if err != nil {
			return nil, wrapErr(ErrReadError, "server class data table", err)
		}
		classes = append(classes, &dem.ServerClass{
			ID:        democore.ClassID(id),
			Name:      cname,
			DataTable: dtable,
		})
	}

	return &dem.DataTablesPacket{Tables: tables, ServerClasses: classes}, nil
}

// encodeDataTables writes the symmetric counterpart of parseDataTables.
// Array element props are re-emitted as a standalone InsideArray prop
// immediately before their owning Array prop, undoing the Element
// linking parseDataTables performs on decode.
func encodeDataTables(w *bitstream.Writer, pkt *dem.DataTablesPacket) error {
	for _, table := range pkt.Tables {
		if err := w.WriteBool(true); err != nil {
			return err
		}
		if err := w.WriteBool(table.NeedsDecoder); err != nil {
			return err
		}
		if err := w.WriteString(table.Name); err != nil {
			return err
		}

		propCount := len(table.Props)
		for _, p := range table.Props {
			if p.Type == dem.SendPropTypeArray && p.Element != nil {
				propCount++
			}
		}
		if err := w.WriteBits(uint64(propCount), 10); err != nil {
			return err
		}

		for _, p := range table.Props {
			if p.Type == dem.SendPropTypeArray && p.Element != nil {
				if err := encodePropDef(w, p.Element); err != nil {
					return err
				}
			}
			if err := encodePropDef(w, p); err != nil {
				return err
			}
		}
	}
	if err := w.WriteBool(false); err != nil {
		return err
	}

	if err := w.WriteBits(uint64(len(pkt.ServerClasses)), 16); err != nil {
		return err
	}
	for _, c := range pkt.ServerClasses {
		if err := w.WriteBits(uint64(c.ID), 16); err != nil {
			return err
		}
		if err := w.WriteString(c.Name); err != nil {
			return err
		}
		if err := w.WriteString(c.DataTable); err != nil {
			return err
		}
	}
	return nil
}

// encodePropDef writes the symmetric counterpart of parsePropDef.
func encodePropDef(w *bitstream.Writer, p *dem.RawPropDef) error {
	if err := w.WriteBits(uint64(p.Type), 5); err != nil {
		return err
	}
	if err := w.WriteString(p.Name); err != nil {
		return err
	}
	if err := w.WriteBits(uint64(p.Flags), 16); err != nil {
		return err
	}

	switch p.Type {
	case dem.SendPropTypeDataTable:
		if err := w.WriteString(p.TableName); err != nil {
			return err
		}

	case dem.SendPropTypeArray:
		if err := w.WriteBits(uint64(p.NumElements), arrayNumElementsBits); err != nil {
			return err
		}

	case dem.SendPropTypeString:
		// No additional fields.

	default: // Int, Float, Vector, VectorXY
		if err := w.WriteBits(uint64(p.Bits), sendPropBitCountBits); err != nil {
			return err
		}
		if !p.Flags.Has(dem.SendPropFlagNoScale) {
			if err := w.WriteFloat32(p.LowValue); err != nil {
				return err
			}
			if err := w.WriteFloat32(p.HighValue); err != nil {
				return err
			}
		}
	}

	return w.WriteBits(uint64(p.Priority), 8)
}

// parsePropDef decodes one RawPropDef (§4.4): a 5-bit type tag, name,
// 16-bit flags, then type-specific fields.
func parsePropDef(r *bitstream.Reader, owner string) (*dem.RawPropDef, error) {
	typeBits, err := r.ReadBits(5)
	if err != nil {
		return nil, wrapErr(ErrReadError, "prop type", err)
	}
	if typeBits > uint64(dem.SendPropTypeDataTable) {
		return nil, newErr(ErrInvalidSendPropType, "")
	}
	name, err := r.ReadString()
	if err != nil {
		return nil, wrapErr(ErrReadError, "prop name", err)
	}
	flagBits, err := r.ReadBits(16)
	if err != nil {
		return nil, wrapErr(ErrReadError, "prop flags", err)
	}

	p := &dem.RawPropDef{
		Owner: owner,
		Name:  name,
		Type:  dem.SendPropType(typeBits),
		Flags: dem.SendPropFlag(flagBits),
	}

	switch p.Type {
	case dem.SendPropTypeDataTable:
		tname, err := r.ReadString()
		if err != nil {
			return nil, wrapErr(ErrReadError, "prop table name", err)
		}
		p.TableName = tname

	case dem.SendPropTypeArray:
		n, err := r.ReadBits(arrayNumElementsBits)
		if err != nil {
			return nil, wrapErr(ErrReadError, "array num elements", err)
		}
		p.NumElements = int(n)

	case dem.SendPropTypeString:
		// No additional fields.

	default: // Int, Float, Vector, VectorXY
		bits, err := r.ReadBits(sendPropBitCountBits)
		if err != nil {
			return nil, wrapErr(ErrReadError, "prop bit count", err)
		}
		p.Bits = uint(bits)
		if !p.Flags.Has(dem.SendPropFlagNoScale) {
			low, err := r.ReadFloat32()
			if err != nil {
				return nil, wrapErr(ErrReadError, "prop low value", err)
			}
			high, err := r.ReadFloat32()
			if err != nil {
				return nil, wrapErr(ErrReadError, "prop high value", err)
			}
			p.LowValue, p.HighValue = low, high
		}
	}

	priority, err := r.ReadBits(8)
	if err != nil {
		return nil, wrapErr(ErrReadError, "prop priority", err)
	}
	p.Priority = byte(priority)

	return p, nil
}

type excludeKey struct{ table, name string }

// flattenTable implements §4.4's flattening algorithm: exclude-set
// computation, depth-first collection honoring Collapsible nesting, and
// stable partition by priority.
func flattenTable(tables map[string]*dem.SendTableDef, root *dem.SendTableDef) ([]*dem.FlatProp, error) {
	excludes := map[excludeKey]struct{}{}
	collectExcludes(tables, root, excludes, map[string]bool{})

	var collected []*dem.RawPropDef
	if err := collectProps(tables, root, excludes, &collected, map[string]bool{}); err != nil {
		return nil, err
	}

	kept := collected[:0]
	for _, p := range collected {
		if _, excluded := excludes[excludeKey{p.Owner, p.Name}]; excluded {
			continue
		}
		kept = append(kept, p)
	}

	effPriority := func(p *dem.RawPropDef) int {
		pr := int(p.Priority)
		if p.Flags.Has(dem.SendPropFlagChangesOften) && pr < dem.PriorityChangesOften {
			pr = dem.PriorityChangesOften
		}
		return pr
	}

	sort.SliceStable(kept, func(i, j int) bool {
		pi, pj := effPriority(kept[i]), effPriority(kept[j])
		gi, gj := pi <= dem.PriorityChangesOften, pj <= dem.PriorityChangesOften
		if gi != gj {
			return gi
		}
		if gi {
			return pi < pj
		}
		return false
	})

	flat := make([]*dem.FlatProp, len(kept))
	for i, p := range kept {
		flat[i] = &dem.FlatProp{RawPropDef: p, Identifier: dem.PropIdentifier(p.Owner, p.Name)}
	}
	return flat, nil
}

// collectExcludes walks table and every table it references via
// DataTable props, recording every (table, prop) pair named by an
// Exclude-flagged prop (§4.4 step 1).
func collectExcludes(tables map[string]*dem.SendTableDef, table *dem.SendTableDef, excludes map[excludeKey]struct{}, visited map[string]bool) {
	if table == nil || visited[table.Name] {
		return
	}
	visited[table.Name] = true

	for _, p := range table.Props {
		if p.Type != dem.SendPropTypeDataTable {
			continue
		}
		if p.Flags.Has(dem.SendPropFlagExclude) {
			excludes[excludeKey{p.TableName, p.Name}] = struct{}{}
		}
		collectExcludes(tables, tables[p.TableName], excludes, visited)
	}
}

// collectProps performs the depth-first prop collection of §4.4 step 2:
// non-DataTable props are emitted owner-tagged; DataTable props recurse
// into the referenced table, honoring the InsideArray pairing already
// resolved by parsePropDef's caller.
func collectProps(tables map[string]*dem.SendTableDef, table *dem.SendTableDef, excludes map[excludeKey]struct{}, out *[]*dem.RawPropDef, visited map[string]bool) error {
	if table == nil {
		return newErr(ErrUnknownSendTable, "")
	}

	for _, p := range table.Props {
		if p.Type != dem.SendPropTypeDataTable {
			*out = append(*out, p)
			continue
		}
		if p.Flags.Has(dem.SendPropFlagExclude) {
			// Exclude markers only declare the exclude set; they carry
			// no data of their own.
			continue
		}
		sub, ok := tables[p.TableName]
		if !ok {
			return newErr(ErrUnknownSendTable, p.TableName)
		}
		if err := collectProps(tables, sub, excludes, out, visited); err != nil {
			return err
		}
	}
	return nil
}
