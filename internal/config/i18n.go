package config

// TextID identifies a user-visible message.
type TextID int

const (
	TextPopoutCannotBeCreatedWithGround TextID = iota
	TextPleaseRegisterAConstructor
	TextComponentTypeNotRegistered
	TextComponentIsAlreadyRegistered
	TextComponentIsNotVirtuable
	TextVirtualComponentHasNoRoot
	TextItemConfigIsNotComponent
)

var texts = map[TextID]string{
	TextPopoutCannotBeCreatedWithGround: "Popout cannot be created with ground ItemConfig",
	TextPleaseRegisterAConstructor:      "Please register a constructor function",
	TextComponentTypeNotRegistered:      "Component type not registered and no bind handler assigned",
	TextComponentIsAlreadyRegistered:    "Component is already registered",
	TextComponentIsNotVirtuable:         "Component is not virtuable. Requires a root element",
	TextVirtualComponentHasNoRoot:       "Virtual component does not have a root element",
	TextItemConfigIsNotComponent:        "ItemConfig is not of type component",
}

// Text returns the message for id.
func Text(id TextID) string {
	return texts[id]
}
