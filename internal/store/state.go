package store

// State is the application state handed to the HTTP and WebSocket handlers.
type State struct {
	Todos *TodoStore
	Chat  *ChatStore
}

// NewState returns empty stores. chatLimit is passed to NewChatStore.
func NewState(chatLimit int) *State {
	return &State{
		Todos: NewTodoStore(),
		Chat:  NewChatStore(chatLimit),
	}
}
