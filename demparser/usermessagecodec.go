package demparser

import (
	"strings"

	"github.com/icza/tf2rep/bitstream"
	"github.com/icza/tf2rep/dem/demmsg"
	"github.com/icza/tf2rep/dem/democore"
)

// decodeBSPDecal decodes a BspDecal message (§4.3): three BitCoord
// position components, a 9-bit texture index, one has-entity bit gating
// the 11-bit entity and 12-bit model indices, and a low-priority bit.
func decodeBSPDecal(r *bitstream.Reader) (demmsg.BSPDecalMessage, error) {
	var m demmsg.BSPDecalMessage
	x, err := r.ReadBitCoord()
	if err != nil {
		return m, wrapErr(ErrReadError, "bspdecal x", err)
	}
	y, err := r.ReadBitCoord()
	if err != nil {
		return m, wrapErr(ErrReadError, "bspdecal y", err)
	}
	z, err := r.ReadBitCoord()
	if err != nil {
		return m, wrapErr(ErrReadError, "bspdecal z", err)
	}
	m.Position = democore.Vector{X: x, Y: y, Z: z}

	texIdx, err := r.ReadBits(9)
	if err != nil {
		return m, wrapErr(ErrReadError, "bspdecal texture index", err)
	}
	m.TextureIndex = uint16(texIdx)

	hasEnt, err := r.ReadBool()
	if err != nil {
		return m, wrapErr(ErrReadError, "bspdecal has-entity bit", err)
	}
	if hasEnt {
		ent, err := r.ReadBits(11)
		if err != nil {
			return m, wrapErr(ErrReadError, "bspdecal entity index", err)
		}
		model, err := r.ReadBits(12)
		if err != nil {
			return m, wrapErr(ErrReadError, "bspdecal model index", err)
		}
		m.EntIndex = uint16(ent)
		m.ModelIndex = uint16(model)
	}

	low, err := r.ReadBool()
	if err != nil {
		return m, wrapErr(ErrReadError, "bspdecal low priority bit", err)
	}
	m.LowPriority = low
	return m, nil
}

// encodeBSPDecal writes the symmetric counterpart of decodeBSPDecal.
func encodeBSPDecal(w *bitstream.Writer, m demmsg.BSPDecalMessage) error {
	if err := w.WriteBitCoord(m.Position.X); err != nil {
		return err
	}
	if err := w.WriteBitCoord(m.Position.Y); err != nil {
		return err
	}
	if err := w.WriteBitCoord(m.Position.Z); err != nil {
		return err
	}
	if err := w.WriteBits(uint64(m.TextureIndex), 9); err != nil {
		return err
	}
	hasEnt := m.EntIndex != 0 || m.ModelIndex != 0
	if err := w.WriteBool(hasEnt); err != nil {
		return err
	}
	if hasEnt {
		if err := w.WriteBits(uint64(m.EntIndex), 11); err != nil {
			return err
		}
		if err := w.WriteBits(uint64(m.ModelIndex), 12); err != nil {
			return err
		}
	}
	return w.WriteBool(m.LowPriority)
}

// decodeUserMessage decodes a UserMessage envelope (§4.3): an 8-bit
// sub-type tag, an 11-bit byte length, then the sub-type's payload.
// Recognized sub-types decode structurally; everything else falls back
// to UnknownUserMessage, matching UserMessageTypeByID's non-fatal
// unknown policy (§9).
func decodeUserMessage(r *bitstream.Reader) (*demmsg.UserMessage, error) {
	idBits, err := r.ReadBits(8)
	if err != nil {
		return nil, wrapErr(ErrReadError, "user message sub-type", err)
	}
	length, err := r.ReadBits(11)
	if err != nil {
		return nil, wrapErr(ErrReadError, "user message length", err)
	}
	payload, err := r.ReadSubStream(length * 8)
	if err != nil {
		return nil, wrapErr(ErrReadError, "user message payload", err)
	}

	subType := demmsg.UserMessageTypeByID(byte(idBits))
	msg := &demmsg.UserMessage{SubType: subType}

	switch subType.ID {
	case demmsg.UserMsgIDSayText2:
		m, err := decodeSayText2(payload)
		if err != nil {
			return nil, err
		}
		msg.SayText2 = &m

	case demmsg.UserMsgIDTextMsg:
		loc, err := payload.ReadBits(8)
		if err != nil {
			return nil, wrapErr(ErrReadError, "textmsg location", err)
		}
		text, err := payload.ReadString()
		if err != nil {
			return nil, wrapErr(ErrReadError, "textmsg text", err)
		}
		var subs []string
		for i := 0; i < 4 && payload.BitsLeft() > 7; i++ {
			s, err := payload.ReadString()
			if err != nil {
				return nil, wrapErr(ErrReadError, "textmsg substitute", err)
			}
			subs = append(subs, s)
		}
		msg.Text = &demmsg.TextMessage{Location: byte(loc), Text: text, Substitutes: subs}

	case demmsg.UserMsgIDResetHUD:
		data, err := payload.ReadBits(8)
		if err != nil {
			return nil, wrapErr(ErrReadError, "resethud data", err)
		}
		msg.ResetHUD = &demmsg.ResetHudMessage{Data: byte(data)}

	case demmsg.UserMsgIDTrain:
		data, err := payload.ReadBits(8)
		if err != nil {
			return nil, wrapErr(ErrReadError, "train data", err)
		}
		msg.Train = &demmsg.TrainMessage{Data: byte(data)}

	case demmsg.UserMsgIDVoiceSubtitle:
		client, err := payload.ReadBits(8)
		if err != nil {
			return nil, wrapErr(ErrReadError, "voicesubtitle client", err)
		}
		menu, err := payload.ReadBits(8)
		if err != nil {
			return nil, wrapErr(ErrReadError, "voicesubtitle menu", err)
		}
		item, err := payload.ReadBits(8)
		if err != nil {
			return nil, wrapErr(ErrReadError, "voicesubtitle item", err)
		}
		msg.VoiceSubtitle = &demmsg.VoiceSubtitleMessage{Client: byte(client), Menu: byte(menu), Item: byte(item)}

	case demmsg.UserMsgIDShake:
		cmd, err := payload.ReadBits(8)
		if err != nil {
			return nil, wrapErr(ErrReadError, "shake command", err)
		}
		amp, err := payload.ReadFloat32()
		if err != nil {
			return nil, wrapErr(ErrReadError, "shake amplitude", err)
		}
		freq, err := payload.ReadFloat32()
		if err != nil {
			return nil, wrapErr(ErrReadError, "shake frequency", err)
		}
		dur, err := payload.ReadFloat32()
		if err != nil {
			return nil, wrapErr(ErrReadError, "shake duration", err)
		}
		msg.Shake = &demmsg.ShakeMessage{Command: byte(cmd), Amplitude: amp, Frequency: freq, Duration: dur}

	default:
		data, err := readBitsAsBytes(payload, uint64(payload.BitsLeft()-payload.BitsLeft()%8))
		if err != nil {
			return nil, err
		}
		msg.Unknown = &demmsg.UnknownUserMessage{Data: data}
	}

	return msg, nil
}

// encodeUserMessage writes the symmetric counterpart of decodeUserMessage.
func encodeUserMessage(w *bitstream.Writer, msg *demmsg.UserMessage) error {
	if err := w.WriteBits(uint64(msg.SubType.ID), 8); err != nil {
		return err
	}

	payload := bitstream.NewWriter()
	switch msg.SubType.ID {
	case demmsg.UserMsgIDSayText2:
		if err := encodeSayText2(payload, *msg.SayText2); err != nil {
			return err
		}

	case demmsg.UserMsgIDTextMsg:
		if err := payload.WriteBits(uint64(msg.Text.Location), 8); err != nil {
			return err
		}
		if err := payload.WriteString(msg.Text.Text); err != nil {
			return err
		}
		for _, sub := range msg.Text.Substitutes {
			if err := payload.WriteString(sub); err != nil {
				return err
			}
		}

	case demmsg.UserMsgIDResetHUD:
		if err := payload.WriteBits(uint64(msg.ResetHUD.Data), 8); err != nil {
			return err
		}

	case demmsg.UserMsgIDTrain:
		if err := payload.WriteBits(uint64(msg.Train.Data), 8); err != nil {
			return err
		}

	case demmsg.UserMsgIDVoiceSubtitle:
		if err := payload.WriteBits(uint64(msg.VoiceSubtitle.Client), 8); err != nil {
			return err
		}
		if err := payload.WriteBits(uint64(msg.VoiceSubtitle.Menu), 8); err != nil {
			return err
		}
		if err := payload.WriteBits(uint64(msg.VoiceSubtitle.Item), 8); err != nil {
			return err
		}

	case demmsg.UserMsgIDShake:
		if err := payload.WriteBits(uint64(msg.Shake.Command), 8); err != nil {
			return err
		}
		if err := payload.WriteFloat32(msg.Shake.Amplitude); err != nil {
			return err
		}
		if err := payload.WriteFloat32(msg.Shake.Frequency); err != nil {
			return err
		}
		if err := payload.WriteFloat32(msg.Shake.Duration); err != nil {
			return err
		}

	default:
		if err := payload.WriteBytes(msg.Unknown.Data); err != nil {
			return err
		}
	}

	if err := w.WriteBits(payload.BitLen()/8, 11); err != nil {
		return err
	}
	return w.Append(payload)
}

// decodeSayText2 decodes a SayText2 user message: a client/raw byte
// pair, a "from" name, and the chat text, with the kind inferred from
// the engine's placeholder markers in Text (Cust_Team, Cust_Chat_AllDead,
// Cust_NameChange) or From (*TEAM*) (§4.3).
func decodeSayText2(r *bitstream.Reader) (demmsg.SayText2Message, error) {
	var m demmsg.SayText2Message
	client, err := r.ReadBits(8)
	if err != nil {
		return m, wrapErr(ErrReadError, "saytext2 client", err)
	}
	raw, err := r.ReadBits(8)
	if err != nil {
		return m, wrapErr(ErrReadError, "saytext2 raw", err)
	}
	from, err := r.ReadString()
	if err != nil {
		return m, wrapErr(ErrReadError, "saytext2 from", err)
	}
	text, err := r.ReadString()
	if err != nil {
		return m, wrapErr(ErrReadError, "saytext2 text", err)
	}
	m.Client, m.Raw = byte(client), byte(raw)
	m.From, m.Text = stripColorCodes(from), stripColorCodes(text)
	switch {
	case strings.Contains(text, "Cust_Team"), strings.Contains(from, "*TEAM*"):
		m.Kind = demmsg.ChatTeam
	case strings.Contains(text, "Cust_Chat_AllDead"):
		m.Kind = demmsg.ChatAllDead
	case strings.Contains(text, "Cust_NameChange"):
		m.Kind = demmsg.ChatNameChange
	default:
		m.Kind = demmsg.ChatAll
	}
	return m, nil
}

// encodeSayText2 writes the symmetric counterpart of decodeSayText2.
// Kind is re-derivable from From/Text on decode, so it carries no extra
// wire data; the original's inline color-code bytes are not
// recoverable, since stripColorCodes discards them irreversibly on
// decode (an intentional, documented lossy step, not a round-trip gap
// introduced here).
func encodeSayText2(w *bitstream.Writer, m demmsg.SayText2Message) error {
	if err := w.WriteBits(uint64(m.Client), 8); err != nil {
		return err
	}
	if err := w.WriteBits(uint64(m.Raw), 8); err != nil {
		return err
	}
	if err := w.WriteString(m.From); err != nil {
		return err
	}
	return w.WriteString(m.Text)
}

// stripColorCodes removes the engine's inline chat color-code control
// bytes (0x01-0x10), which carry no semantic content for a chat log.
func stripColorCodes(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= 0x01 && r <= 0x10 {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
