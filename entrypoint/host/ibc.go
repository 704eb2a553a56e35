package host

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	errorsmod "cosmossdk.io/errors"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/ibc"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/wasm"
)

func escrowAddress(channel string) string {
	return "ibc-escrow/" + channel
}

// sendPacket escrows the coin and records an outgoing packet
func (h *Host) sendPacket(sender string, transfer wasm.IbcTransferMsg) (Packet, error) {
	if transfer.ChannelID == "" {
		return Packet{}, errorsmod.Wrap(ErrUnknownMessage, "ibc transfer without channel")
	}
	if err := transfer.Amount.Validate(); err != nil {
		return Packet{}, errorsmod.Wrap(ErrUnknownMessage, err.Error())
	}
	now := uint64(h.blockNow.UnixNano())
	if transfer.Timeout <= now {
		return Packet{}, errorsmod.Wrapf(ErrPacketTimeoutPassed, "timeout %d, block time %d", transfer.Timeout, now)
	}

	if err := h.send(sender, escrowAddress(transfer.ChannelID), wasm.NewCoins(transfer.Amount)); err != nil {
		return Packet{}, err
	}

	h.nextSequence[transfer.ChannelID]++
	packet := Packet{
		Sender:   sender,
		Channel:  transfer.ChannelID,
		Sequence: h.nextSequence[transfer.ChannelID],
		Receiver: transfer.ToAddress,
		Amount:   transfer.Amount,
		Memo:     transfer.Memo,
		Timeout:  transfer.Timeout,
	}
	h.packets[packetKey{channel: packet.Channel, sequence: packet.Sequence}] = packet
	return packet, nil
}

// Packets lists in flight packets ordered by channel and sequence
func (h *Host) Packets() []Packet {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Packet, 0, len(h.packets))
	for _, p := range h.packets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Channel != out[j].Channel {
			return out[i].Channel < out[j].Channel
		}
		return out[i].Sequence < out[j].Sequence
	})
	return out
}

// RelayAck delivers an acknowledgement. A failed ack refunds the escrow to the sender.
func (h *Host) RelayAck(ctx context.Context, channel string, sequence uint64, success bool, ack string) (*Result, error) {
	return h.completePacket(ctx, channel, sequence, ibc.IbcLifecycleComplete{IbcAck: &ibc.IbcAck{
		Channel:  channel,
		Sequence: sequence,
		Ack:      ack,
		Success:  success,
	}})
}

// RelayTimeout times the packet out and refunds the escrow to the sender
func (h *Host) RelayTimeout(ctx context.Context, channel string, sequence uint64) (*Result, error) {
	return h.completePacket(ctx, channel, sequence, ibc.IbcLifecycleComplete{IbcTimeout: &ibc.IbcTimeout{
		Channel:  channel,
		Sequence: sequence,
	}})
}

func (h *Host) completePacket(ctx context.Context, channel string, sequence uint64, lifecycle ibc.IbcLifecycleComplete) (*Result, error) {
	return h.transact(func(tx *txContext) error {
		key := packetKey{channel: channel, sequence: sequence}
		packet, ok := h.packets[key]
		if !ok {
			return errorsmod.Wrapf(ErrPacketNotFound, "%s/%d", channel, sequence)
		}
		delete(h.packets, key)

		escrow := escrowAddress(channel)
		if lifecycle.Failed() {
			if err := h.send(escrow, packet.Sender, wasm.NewCoins(packet.Amount)); err != nil {
				return err
			}
		} else {
			// delivered, the voucher leaves this chain
			if err := (bank{h: h}).Burn(escrow, wasm.NewCoins(packet.Amount)); err != nil {
				return err
			}
		}
		tx.events = append(tx.events, Event{Type: "packet_lifecycle", Sender: packet.Sender, Attributes: []wasm.Attribute{
			{Key: "packet_src_channel", Value: channel},
			{Key: "packet_sequence", Value: fmt.Sprint(sequence)},
			{Key: "failed", Value: fmt.Sprint(lifecycle.Failed())},
		}})

		c, ok := h.contracts[packet.Sender]
		if !ok {
			return nil
		}
		sudoer, ok := c.(SudoContract)
		if !ok {
			return nil
		}

		raw, err := json.Marshal(ibc.SudoMsg{IbcLifecycleComplete: &lifecycle})
		if err != nil {
			return fmt.Errorf("failed to marshal lifecycle: %w", err)
		}
		res, err := sudoer.Sudo(ctx, h.deps(ctx, packet.Sender), h.env(packet.Sender), raw)
		if err != nil {
			return errorsmod.Wrapf(err, "sudo %s", packet.Sender)
		}
		if res == nil {
			return nil
		}
		tx.events = append(tx.events, Event{Type: "sudo", Contract: packet.Sender, Attributes: res.Attributes})
		return h.dispatchAll(ctx, tx, 1, packet.Sender, res.Messages)
	}, nil)
}
