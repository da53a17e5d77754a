package utils

import (
	"github.com/pkoukk/tiktoken-go"
)

// NumTokens counts tokens with the cl100k encoding used by the gpt-4 family.
// The first call may fetch the BPE ranks, so callers should treat errors as
// "unknown" rather than fatal.
func NumTokens(text string) (int, error) {
	tkm, err := tiktoken.EncodingForModel("gpt-4-0613")
	if err != nil {
		return 0, err
	}

	return len(tkm.Encode(text, nil, nil)), nil
}
