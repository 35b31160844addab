// Package resolver turns free-form chat input into a sticker set reference.
package resolver

import (
	"fmt"
	"regexp"

	"github.com/flowbaker/stickerzip/pkg/domain"
)

var shareLinkPattern = regexp.MustCompile(`^https://t\.me/(addemoji|addstickers)/(\S+)$`)

type InputKind string

const (
	InputKind_Command    InputKind = "command"
	InputKind_Text       InputKind = "text"
	InputKind_Attachment InputKind = "attachment"
)

// Input is what a chat message carried. For InputKind_Attachment SetName holds
// the set name of the forwarded sticker, empty when the sticker has none.
type Input struct {
	Kind     InputKind
	Text     string
	Argument string
	SetName  string
}

func CommandInput(argument string) Input {
	return Input{Kind: InputKind_Command, Argument: argument}
}

func TextInput(text string) Input {
	return Input{Kind: InputKind_Text, Text: text}
}

func AttachmentInput(setName string) Input {
	return Input{Kind: InputKind_Attachment, SetName: setName}
}

type Reason string

const (
	Reason_IncorrectURL    Reason = "incorrect_url"
	Reason_NameMissing     Reason = "name_missing"
	Reason_MissingArgument Reason = "missing_argument"
)

type ResolutionError struct {
	Reason Reason
	Input  Input
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve %s input: %s", e.Input.Kind, e.Reason)
}

func (e *ResolutionError) Unwrap() error {
	return domain.ErrResolutionNotFound
}

func Resolve(in Input) (domain.CollectionReference, error) {
	switch in.Kind {
	case InputKind_Command:
		if in.Argument == "" {
			return "", &ResolutionError{Reason: Reason_MissingArgument, Input: in}
		}
		return domain.CollectionReference(in.Argument), nil
	case InputKind_Text:
		name, ok := ParseShareLink(in.Text)
		if !ok {
			return "", &ResolutionError{Reason: Reason_IncorrectURL, Input: in}
		}
		return domain.CollectionReference(name), nil
	case InputKind_Attachment:
		if in.SetName == "" {
			return "", &ResolutionError{Reason: Reason_NameMissing, Input: in}
		}
		return domain.CollectionReference(in.SetName), nil
	default:
		return "", fmt.Errorf("unknown input kind %q", in.Kind)
	}
}

// ParseShareLink extracts the set name from an addstickers or addemoji link.
func ParseShareLink(text string) (string, bool) {
	matches := shareLinkPattern.FindStringSubmatch(text)
	if matches == nil {
		return "", false
	}

	return matches[2], true
}
