package osc

import (
	"fmt"

	goosc "github.com/hypebeast/go-osc/osc"
)

// Outbound input addresses understood by VRChat.
const (
	AddressVertical       = "/input/Vertical"
	AddressHorizontal     = "/input/Horizontal"
	AddressLookHorizontal = "/input/LookHorizontal"
	AddressRun            = "/input/Run"

	// AddressAvatarChange is sent by the client when the avatar changes.
	AddressAvatarChange = "/avatar/change"
)

// maxDatagramSize bounds a single UDP read.
const maxDatagramSize = 64 << 10

// decodePacket parses a datagram into its messages. Bundles are flattened
// in order, nested bundles included.
func decodePacket(data []byte) ([]*goosc.Message, error) {
	pkt, err := goosc.ParsePacket(string(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodeFailed, err)
	}
	return flatten(pkt, nil), nil
}

func flatten(pkt goosc.Packet, out []*goosc.Message) []*goosc.Message {
	switch p := pkt.(type) {
	case *goosc.Message:
		out = append(out, p)
	case *goosc.Bundle:
		out = append(out, p.Messages...)
		for _, nested := range p.Bundles {
			out = flatten(nested, out)
		}
	}
	return out
}

// encodeMessage builds a single-argument OSC message.
func encodeMessage(address string, arg any) ([]byte, error) {
	data, err := goosc.NewMessage(address, arg).MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", address, err)
	}
	return data, nil
}
