package chatbot

// Apology is the only thing a user sees of a failed search
const Apology = "There was an error processing your request. Please try again later."

// Plan returns the bot messages a response renders to, in display order:
// text, then PDF embed, then website embed. Absent fields produce nothing.
func Plan(resp *SearchResponse, seq uint64) []Message {
	if resp == nil {
		return nil
	}

	var msgs []Message
	if text, ok := resp.AIResponse.Get(); ok {
		msgs = append(msgs, NewMessage(seq, RoleBot, KindText, text, ""))
	}
	if u, ok := resp.PDFEmbedURL.Get(); ok {
		msgs = append(msgs, NewMessage(seq, RoleBot, KindPDF, "", u))
	}
	if u, ok := resp.EmbeddedWebsite.Get(); ok {
		msgs = append(msgs, NewMessage(seq, RoleBot, KindWebsite, "", u))
	}
	return msgs
}

// ApologyMessage returns the error message appended for a failed submission
func ApologyMessage(seq uint64) Message {
	return NewMessage(seq, RoleBot, KindError, Apology, "")
}
