package topics

// Renderer formats topic content for display. The format argument is the
// topic file's extension, including the dot.
type Renderer interface {
	Render(content string, format string) string
}

// PlainRenderer passes content through untouched.
type PlainRenderer struct{}

// Render returns the content as-is.
func (r *PlainRenderer) Render(content string, format string) string {
	return content
}
