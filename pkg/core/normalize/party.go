package normalize

import "strings"

// Parties is the split form of the shipper/consignee/notify/containers blob
type Parties struct {
	Shipper    string
	Consignee  string
	Notify     string
	Containers string
}

// partyTokens are the field separators of the blob, in their fixed order
var partyTokens = [4]string{"sh:", "cn:", "ny:", "ct:"}

// SplitParties reads the four fields packed in one free-text blob, e.g.
// "SH: ACME CN: GLOBEX NY: NOTIFYCO CT: 5". Tokens are matched case-insensitively at
// their first occurrence. A field runs from its token to the next token found after it
// in the fixed order, or to the end of the blob. Missing tokens give empty fields.
func SplitParties(blob string) Parties {
	var idx [4]int
	for i, tok := range partyTokens {
		idx[i] = indexFold(blob, tok)
	}

	var values [4]string
	for i, start := range idx {
		if start < 0 {
			continue
		}
		end := len(blob)
		for j := i + 1; j < len(idx); j++ {
			if idx[j] > start {
				end = idx[j]
				break
			}
		}
		if _, after, ok := strings.Cut(blob[start:end], ":"); ok {
			values[i] = strings.TrimSpace(after)
		}
	}

	return Parties{
		Shipper:    values[0],
		Consignee:  values[1],
		Notify:     values[2],
		Containers: values[3],
	}
}

// indexFold is strings.Index with ASCII case folding on the token
func indexFold(s, token string) int {
	for i := 0; i+len(token) <= len(s); i++ {
		if strings.EqualFold(s[i:i+len(token)], token) {
			return i
		}
	}
	return -1
}
