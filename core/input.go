package core

import (
	"encoding/base64"

	apperrors "github.com/Skryldev/image-filter/errors"
	"github.com/Skryldev/image-filter/utils"
)

// Input is anything that can be normalised into encoded image bytes.
type Input interface {
	Bytes() ([]byte, error)
}

// RawInput is encoded image bytes, passed through unchanged.
type RawInput []byte

// Bytes returns a copy of the raw bytes.
func (r RawInput) Bytes() ([]byte, error) { return utils.CloneBytes(r), nil }

// Base64Input is base64 text, optionally prefixed by a
// "data:<mime>;base64," marker.
type Base64Input string

// Bytes strips any data-URI marker and decodes the payload.
func (s Base64Input) Bytes() ([]byte, error) {
	payload, _ := utils.StripDataURI(string(s))
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, apperrors.New(apperrors.InvalidParsing, "input.base64", err)
	}
	return data, nil
}

var (
	_ Input = RawInput(nil)
	_ Input = Base64Input("")
)
