package macro

// bufferChunk is the minimum growth step of an expansion buffer.
const bufferChunk = 16 * 1024

// buffer accumulates expansion output. It grows in chunks of at least
// bufferChunk bytes so that long expansions append without reallocating on
// every write.
type buffer struct {
	b []byte
}

func (b *buffer) grow(n int) {
	if cap(b.b)-len(b.b) >= n {
		return
	}
	nb := make([]byte, len(b.b), cap(b.b)+bufferChunk+n)
	copy(nb, b.b)
	b.b = nb
}

func (b *buffer) appendByte(c byte) {
	b.grow(1)
	b.b = append(b.b, c)
}

func (b *buffer) appendString(s string) {
	b.grow(len(s))
	b.b = append(b.b, s...)
}

// Write implements io.Writer so that shell output can be copied straight in.
func (b *buffer) Write(p []byte) (int, error) {
	b.grow(len(p))
	b.b = append(b.b, p...)
	return len(p), nil
}

func (b *buffer) len() int { return len(b.b) }

// truncate drops everything after the first n bytes.
func (b *buffer) truncate(n int) { b.b = b.b[:n] }

// since returns the text written after position n.
func (b *buffer) since(n int) string { return string(b.b[n:]) }

func (b *buffer) String() string { return string(b.b) }
