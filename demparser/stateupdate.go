package demparser

import (
	"github.com/icza/tf2rep/dem"
	"github.com/icza/tf2rep/dem/demmsg"
	"github.com/icza/tf2rep/dem/democore"
)

// applyStatefulMessage applies the state mutation a "stateful" message
// type carries (§4.8). PacketEntities, UpdateStringTable and
// GameEventList already mutate s as a side effect of decoding (they
// need live state — baselines, current entries, the event catalogue —
// to decode their own payload in the first place); this only handles
// the two message types whose state effect is purely downstream of an
// already-decoded value (ServerInfo, NetTick), plus CreateStringTable,
// which needs to register its table only after the whole message
// (including its entries) has decoded successfully.
func applyStatefulMessage(s *State, mtype *demmsg.MessageType, msg demmsg.Message) error {
	switch mtype.ID {
	case demmsg.IDServerInfo:
		m := msg.(demmsg.ServerInfoMessage)
		s.NetworkProtocol = uint32(m.Version)
		s.IntervalPerTick = m.IntervalPerTick

	case demmsg.IDNetTick:
		m := msg.(demmsg.NetTickMessage)
		s.Tick = democore.Tick(m.Tick)

	case demmsg.IDCreateStringTable:
		m := msg.(*demmsg.CreateStringTableMessage)
		var fixed *dem.FixedUserdataSize
		if m.UserDataFixedSize {
			fixed = &dem.FixedUserdataSize{Size: m.UserDataSize, Bits: m.UserDataSizeBits}
		}
		s.registerStringTable(&dem.StringTableMeta{
			Name:              m.Name,
			MaxEntries:        m.MaxEntries,
			FixedUserdataSize: fixed,
		})
		meta := s.StringTableMetaByName(m.Name)
		for i, e := range m.Entries {
			if e != nil {
				s.setEntry(meta.ID, i, e)
			}
		}
	}
	return nil
}
