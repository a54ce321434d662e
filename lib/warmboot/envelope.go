// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package warmboot

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bureau-foundation/switchagent/lib/codec"
	"github.com/bureau-foundation/switchagent/lib/switchstate"
	"github.com/bureau-foundation/switchagent/lib/version"
)

// FormatVersion is the envelope layout written by this package. Load
// rejects files with a newer version.
const FormatVersion = 1

// ErrDigestMismatch is returned when a payload does not match the
// digest recorded in its envelope.
var ErrDigestMismatch = errors.New("warm-boot payload digest mismatch")

// Encoding names the payload serialization.
type Encoding string

const (
	EncodingCBOR Encoding = "cbor"
	EncodingJSON Encoding = "json"
)

// ParseEncoding validates an encoding name.
func ParseEncoding(name string) (Encoding, error) {
	switch encoding := Encoding(name); encoding {
	case EncodingCBOR, EncodingJSON:
		return encoding, nil
	default:
		return "", fmt.Errorf("unknown encoding %q", name)
	}
}

// Envelope is the on-disk framing of a state file.
type Envelope struct {
	FormatVersion    int         `cbor:"format_version"`
	AgentVersion     string      `cbor:"agent_version"`
	WrittenAt        time.Time   `cbor:"written_at"`
	Generation       uint64      `cbor:"generation"`
	Compression      Compression `cbor:"compression"`
	Encoding         Encoding    `cbor:"encoding"`
	UncompressedSize int         `cbor:"uncompressed_size"`
	Digest           Digest      `cbor:"digest"`
	Payload          []byte      `cbor:"payload"`
}

// Options controls how Encode and Save serialize the state.
type Options struct {
	// Compression defaults to zstd.
	Compression Compression

	// Encoding defaults to CBOR.
	Encoding Encoding

	// Generation lets a restarted agent continue its numbering.
	Generation uint64

	// WrittenAt stamps the envelope. Zero means time.Now.
	WrittenAt time.Time
}

// Encode serializes state into envelope bytes.
func Encode(state *switchstate.SwitchState, options Options) ([]byte, error) {
	envelope, err := NewEnvelope(state, options)
	if err != nil {
		return nil, err
	}
	data, err := codec.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("encoding warm-boot envelope: %w", err)
	}
	return data, nil
}

// NewEnvelope serializes and compresses state.
func NewEnvelope(state *switchstate.SwitchState, options Options) (*Envelope, error) {
	if options.Compression == "" {
		options.Compression = CompressionZstd
	}
	if options.Encoding == "" {
		options.Encoding = EncodingCBOR
	}
	if options.WrittenAt.IsZero() {
		options.WrittenAt = time.Now()
	}

	persisted := state.ToPersisted()
	var payload []byte
	var err error
	switch options.Encoding {
	case EncodingCBOR:
		payload, err = codec.Marshal(persisted)
	case EncodingJSON:
		payload, err = json.Marshal(persisted)
	default:
		return nil, fmt.Errorf("unsupported encoding %q", options.Encoding)
	}
	if err != nil {
		return nil, fmt.Errorf("encoding switch state as %s: %w", options.Encoding, err)
	}

	compressed, compression, err := compress(payload, options.Compression)
	if err != nil {
		return nil, err
	}

	return &Envelope{
		FormatVersion:    FormatVersion,
		AgentVersion:     version.Info(),
		WrittenAt:        options.WrittenAt.UTC(),
		Generation:       options.Generation,
		Compression:      compression,
		Encoding:         options.Encoding,
		UncompressedSize: len(payload),
		Digest:           PayloadDigest(payload),
		Payload:          compressed,
	}, nil
}

// DecodeEnvelope parses envelope bytes without touching the payload.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var envelope Envelope
	if err := codec.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decoding warm-boot envelope: %w", err)
	}
	if envelope.FormatVersion < 1 || envelope.FormatVersion > FormatVersion {
		return nil, fmt.Errorf("unsupported warm-boot format version %d (this agent reads up to %d)",
			envelope.FormatVersion, FormatVersion)
	}
	return &envelope, nil
}

// PersistedState decompresses, verifies and decodes the payload.
func (e *Envelope) PersistedState() (*switchstate.PersistedSwitchState, error) {
	payload, err := e.verifiedPayload()
	if err != nil {
		return nil, err
	}
	var persisted switchstate.PersistedSwitchState
	switch e.Encoding {
	case EncodingCBOR:
		err = codec.Unmarshal(payload, &persisted)
	case EncodingJSON:
		err = json.Unmarshal(payload, &persisted)
	default:
		return nil, fmt.Errorf("unsupported encoding %q", e.Encoding)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s payload: %w", e.Encoding, err)
	}
	return &persisted, nil
}

// State rebuilds the unpublished switch state carried by the envelope.
func (e *Envelope) State(logger *slog.Logger) (*switchstate.SwitchState, error) {
	persisted, err := e.PersistedState()
	if err != nil {
		return nil, err
	}
	state, err := switchstate.SwitchStateFromPersisted(persisted, logger)
	if err != nil {
		return nil, fmt.Errorf("restoring switch state: %w", err)
	}
	return state, nil
}

// Verify checks the payload against the recorded digest.
func (e *Envelope) Verify() error {
	_, err := e.verifiedPayload()
	return err
}

func (e *Envelope) verifiedPayload() ([]byte, error) {
	if e.UncompressedSize < 0 {
		return nil, fmt.Errorf("invalid uncompressed size %d", e.UncompressedSize)
	}
	payload, err := decompress(e.Payload, e.Compression, e.UncompressedSize)
	if err != nil {
		return nil, err
	}
	if digest := PayloadDigest(payload); digest != e.Digest {
		return nil, fmt.Errorf("%w: recorded %s, computed %s", ErrDigestMismatch, e.Digest, digest)
	}
	return payload, nil
}

// Decode parses envelope bytes and rebuilds the state they carry.
func Decode(data []byte, logger *slog.Logger) (*switchstate.SwitchState, error) {
	envelope, err := DecodeEnvelope(data)
	if err != nil {
		return nil, err
	}
	return envelope.State(logger)
}
