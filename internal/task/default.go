package task

// Default returns the built-in tasks in running order. Ignore runs first,
// resize before preblend, and pack and prune only see directories whose
// children are final.
func Default() []Task {
	return []Task{
		Ignore{},
		Fonts{},
		Flatten{},
		Resize{},
		PreBlend{},
		Pack{},
		Prune{},
	}
}
