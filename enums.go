package bfevfl

// containerDataType is the on-disk tag for a Container value's type.
type containerDataType uint8

const (
	containerTypeArgument        containerDataType = 0
	containerTypeContainer       containerDataType = 1
	containerTypeInt             containerDataType = 2
	containerTypeBool            containerDataType = 3
	containerTypeFloat           containerDataType = 4
	containerTypeString          containerDataType = 5
	containerTypeWString         containerDataType = 6
	containerTypeIntArray        containerDataType = 7
	containerTypeBoolArray       containerDataType = 8
	containerTypeFloatArray      containerDataType = 9
	containerTypeStringArray     containerDataType = 10
	containerTypeWStringArray    containerDataType = 11
	containerTypeActorIdentifier containerDataType = 12
)

// eventType is the on-disk tag for an Event's variant.
type eventType uint8

const (
	eventTypeAction   eventType = 0
	eventTypeSwitch   eventType = 1
	eventTypeFork     eventType = 2
	eventTypeJoin     eventType = 3
	eventTypeSubFlow  eventType = 4
)

// variableType is the on-disk tag for an entry point Variable's payload.
type variableType uint16

const (
	variableTypeInteger variableType = 0
	variableTypeFloat   variableType = 1
)
