package extract

import (
	"encoding/hex"
	"strings"
)

// textFromContentStream reads the strings shown by Tj, TJ, ' and " operators.
// Line-moving operators become newlines and Td/TD offsets become spaces.
func textFromContentStream(data []byte) string {
	var (
		out     strings.Builder
		line    strings.Builder
		pending []string
	)
	newline := func() {
		if text := strings.TrimSpace(line.String()); text != "" {
			if out.Len() > 0 {
				out.WriteByte('\n')
			}
			out.WriteString(text)
		}
		line.Reset()
	}
	space := func() {
		if line.Len() > 0 && !strings.HasSuffix(line.String(), " ") {
			line.WriteByte(' ')
		}
	}

	for i := 0; i < len(data); {
		c := data[i]
		switch {
		case c == '(':
			s, next := readLiteral(data, i)
			pending = append(pending, s)
			i = next
		case c == '<' && i+1 < len(data) && data[i+1] == '<':
			i += 2
		case c == '>' && i+1 < len(data) && data[i+1] == '>':
			i += 2
		case c == '<':
			s, next := readHexString(data, i)
			pending = append(pending, s)
			i = next
		case c == '/':
			i++
			for i < len(data) && isRegular(data[i]) {
				i++
			}
		case c == '%':
			for i < len(data) && data[i] != '\n' && data[i] != '\r' {
				i++
			}
		case isOperatorStart(c):
			start := i
			for i < len(data) && isOperatorChar(data[i]) {
				i++
			}
			if i == start {
				i++
			}
			switch string(data[start:i]) {
			case "Tj", "TJ":
				line.WriteString(strings.Join(pending, ""))
			case "'", `"`:
				newline()
				line.WriteString(strings.Join(pending, ""))
			case "T*", "ET":
				newline()
			case "Td", "TD":
				space()
			}
			pending = pending[:0]
		default:
			i++
		}
	}
	newline()
	return out.String()
}

func isOperatorStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '\'' || c == '"' || c == '*'
}

func isOperatorChar(c byte) bool {
	return isOperatorStart(c) || (c >= '0' && c <= '9')
}

// readLiteral decodes a parenthesized string starting at data[start].
func readLiteral(data []byte, start int) (string, int) {
	var sb strings.Builder
	depth := 0
	i := start
	for ; i < len(data); i++ {
		c := data[i]
		switch c {
		case '(':
			depth++
			if depth == 1 {
				continue
			}
		case ')':
			depth--
			if depth == 0 {
				return sb.String(), i + 1
			}
		case '\\':
			if i+1 >= len(data) {
				continue
			}
			i++
			switch e := data[i]; e {
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case 'b', 'f':
			case '\r', '\n':
			default:
				if e >= '0' && e <= '7' {
					val := int(e - '0')
					for k := 0; k < 2 && i+1 < len(data) && data[i+1] >= '0' && data[i+1] <= '7'; k++ {
						i++
						val = val*8 + int(data[i]-'0')
					}
					sb.WriteByte(byte(val))
				} else {
					sb.WriteByte(e)
				}
			}
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String(), i
}

// readHexString decodes <48656C6C6F> starting at data[start].
func readHexString(data []byte, start int) (string, int) {
	end := start + 1
	var digits []byte
	for ; end < len(data) && data[end] != '>'; end++ {
		if isHexDigit(data[end]) {
			digits = append(digits, data[end])
		}
	}
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	decoded, err := hex.DecodeString(string(digits))
	if err != nil {
		return "", end + 1
	}
	return string(decoded), end + 1
}

// isRegular reports whether c is neither whitespace nor a PDF delimiter.
func isRegular(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\f', 0, '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return false
	}
	return true
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func hasText(segments []Segment) bool {
	for _, s := range segments {
		if strings.TrimSpace(s.Text) != "" {
			return true
		}
	}
	return false
}
