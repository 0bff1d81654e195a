package ecs

// System is a behavior run by a Scheduler over the entities matching the
// signatures it was registered with. Implementations keep whatever state
// they need between frames in their own fields.
type System interface {
	Execute(frame *UpdateFrame)
}

// SystemFunc adapts a plain function to System.
type SystemFunc func(frame *UpdateFrame)

func (f SystemFunc) Execute(frame *UpdateFrame) {
	f(frame)
}
