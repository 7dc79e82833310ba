package demmsg

import "github.com/icza/tf2rep/dem/democore"

// UserMessageType identifies the sub-type carried inside a UserMessage
// envelope (§4.3). The Source engine assigns these per-mod; the IDs
// below are TF2's.
type UserMessageType struct {
	democore.Enum

	ID byte
}

// UserMessageType IDs TF2 assigns meaning to. Many more exist on the
// wire; those decode as UnknownUserMessage.
const (
	UserMsgIDGeiger          byte = 0
	UserMsgIDTrain           byte = 1
	UserMsgIDHudText         byte = 2
	UserMsgIDSayText         byte = 3
	UserMsgIDSayText2        byte = 4
	UserMsgIDTextMsg         byte = 5
	UserMsgIDResetHUD        byte = 6
	UserMsgIDGameTitle       byte = 7
	UserMsgIDItemPickup      byte = 8
	UserMsgIDShowMenu        byte = 9
	UserMsgIDShake           byte = 10
	UserMsgIDFade            byte = 11
	UserMsgIDVGUIMenu        byte = 12
	UserMsgIDRumble          byte = 13
	UserMsgIDCloseCaption    byte = 14
	UserMsgIDSendAudio       byte = 15
	UserMsgIDVoiceMask       byte = 16
	UserMsgIDRequestState    byte = 17
	UserMsgIDDamage          byte = 18
	UserMsgIDHintText        byte = 19
	UserMsgIDKeyHintText     byte = 20
	UserMsgIDHudMsg          byte = 21
	UserMsgIDAmmoDenied      byte = 22
	UserMsgIDAchievementEvt  byte = 23
	UserMsgIDUpdateRadar     byte = 24
	UserMsgIDVoiceSubtitle   byte = 25
	UserMsgIDHudNotify       byte = 26
	UserMsgIDHudNotifyCustom byte = 27
)

func um(name string, id byte) *UserMessageType {
	return &UserMessageType{democore.Enum{Name: name}, id}
}

// UserMessageTypes lists the user message sub-types TF2rep recognizes
// beyond "raw". Unrecognized IDs are reported via UnknownEnum and decode
// as an UnknownUserMessage.
var UserMessageTypes = []*UserMessageType{
	um("Geiger", UserMsgIDGeiger),
	um("Train", UserMsgIDTrain),
	um("HudText", UserMsgIDHudText),
	um("SayText", UserMsgIDSayText),
	um("SayText2", UserMsgIDSayText2),
	um("TextMsg", UserMsgIDTextMsg),
	um("ResetHUD", UserMsgIDResetHUD),
	um("GameTitle", UserMsgIDGameTitle),
	um("ItemPickup", UserMsgIDItemPickup),
	um("ShowMenu", UserMsgIDShowMenu),
	um("Shake", UserMsgIDShake),
	um("Fade", UserMsgIDFade),
	um("VGUIMenu", UserMsgIDVGUIMenu),
	um("Rumble", UserMsgIDRumble),
	um("CloseCaption", UserMsgIDCloseCaption),
	um("SendAudio", UserMsgIDSendAudio),
	um("VoiceMask", UserMsgIDVoiceMask),
	um("RequestState", UserMsgIDRequestState),
	um("Damage", UserMsgIDDamage),
	um("HintText", UserMsgIDHintText),
	um("KeyHintText", UserMsgIDKeyHintText),
	um("HudMsg", UserMsgIDHudMsg),
	um("AmmoDenied", UserMsgIDAmmoDenied),
	um("AchievementEvent", UserMsgIDAchievementEvt),
	um("UpdateRadar", UserMsgIDUpdateRadar),
	um("VoiceSubtitle", UserMsgIDVoiceSubtitle),
	um("HudNotify", UserMsgIDHudNotify),
	um("HudNotifyCustom", UserMsgIDHudNotifyCustom),
}

var userMessageTypesByID = func() map[byte]*UserMessageType {
	m := make(map[byte]*UserMessageType, len(UserMessageTypes))
	for _, t := range UserMessageTypes {
		m[t.ID] = t
	}
	return m
}()

// UserMessageTypeByID returns the UserMessageType for id, or an
// UnknownEnum-backed placeholder if id has no recognized meaning; an
// unrecognized sub-type is not fatal, unlike an unrecognized
// MessageType (§4.3, §9 "Unknown enumerants").
func UserMessageTypeByID(id byte) *UserMessageType {
	if t, ok := userMessageTypesByID[id]; ok {
		return t
	}
	return &UserMessageType{democore.UnknownEnum(id), id}
}

// ChatMessageKind classifies a SayText2Message by the channel it was
// sent on, inferred from the placeholder markers the engine embeds in
// the chat text (or, for *TEAM*, the "from" name) for team/death/
// name-change chat (§4.3).
type ChatMessageKind byte

// Possible ChatMessageKind values.
const (
	ChatAll ChatMessageKind = iota
	ChatTeam
	ChatAllDead
	ChatNameChange
)

func (k ChatMessageKind) String() string {
	switch k {
	case ChatTeam:
		return "Team"
	case ChatAllDead:
		return "AllDead"
	case ChatNameChange:
		return "NameChange"
	default:
		return "All"
	}
}

// SayText2Message is a decoded chat line: the most commonly consumed
// UserMessage sub-type, and the basis of the "match summary" chat log
// (SPEC_FULL.md §2, analyser/matchsummary). Color-code control bytes
// have already been stripped from From and Text.
type SayText2Message struct {
	Client byte
	Raw    byte
	Kind   ChatMessageKind
	From   string
	Text   string
}

// TextMessage is a HUD text message (UserMsgIDTextMsg) with up to four
// substitution parameters.
type TextMessage struct {
	Location    byte
	Text        string
	Substitutes []string
}

// ResetHudMessage tells the client to reset HUD state.
type ResetHudMessage struct {
	Data byte
}

// TrainMessage drives the train/tram progress HUD element.
type TrainMessage struct {
	Data byte
}

// VoiceSubtitleMessage requests a subtitle line for a voice line played
// by Client.
type VoiceSubtitleMessage struct {
	Client byte
	Menu   byte
	Item   byte
}

// ShakeMessage triggers a screen-shake effect.
type ShakeMessage struct {
	Command   byte
	Amplitude float32
	Frequency float32
	Duration  float32
}

// UnknownUserMessage is the fallback payload for any UserMessageType
// TF2rep does not decode structurally; Data holds the message's raw
// bits, byte-aligned.
type UnknownUserMessage struct {
	Data []byte
}

// UserMessage is a decoded UserMessage envelope (§4.3): the sub-type
// tag plus exactly one populated payload field, selected by SubType.ID.
type UserMessage struct {
	SubType *UserMessageType

	SayText2      *SayText2Message
	Text          *TextMessage
	ResetHUD      *ResetHudMessage
	Train         *TrainMessage
	VoiceSubtitle *VoiceSubtitleMessage
	Shake         *ShakeMessage
	Unknown       *UnknownUserMessage
}

// Type implements Message.
func (UserMessage) Type() *MessageType { return TypeByID(IDUserMessage) }
