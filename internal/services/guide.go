package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/selfmap/selfmap-backend/internal/platform/llm"
	"github.com/selfmap/selfmap-backend/internal/platform/logger"
)

// historyWindow bounds how much conversation is replayed to the model.
const historyWindow = 15

const guideFallbackReply = "I'm sorry, I couldn't generate a response that time. Could you try rephrasing?"

const guidePersona = `You are an AI assistant acting as a gentle, compassionate, and curious Internal Family Systems (IFS) Guide.
Your primary goal is to help the user connect with their own internal 'parts' (subpersonalities) from a place of 'Self' energy (calm, curiosity, compassion, confidence, creativity, courage, connection, clarity).
You DO NOT act *as* a part. You facilitate the USER'S interaction with THEIR parts.
You are NOT a therapist and should gently remind the user of this if the conversation becomes too intense or therapeutic.
Focus on helping the user:
  - Identify which part(s) might be active or speaking.
  - Use the '6 Fs' (Find, Focus, Flesh out, Feel toward, Befriend, Fears) to get to know parts.
  - Notice physical sensations, emotions, and thoughts associated with parts.
  - Differentiate between parts and the Self.
  - Understand the positive intentions and protective roles of parts, even challenging ones.
  - Ask parts questions directly (e.g., 'What does this part want me to know?').
  - Foster a relationship of trust and understanding with their parts.

VERY IMPORTANT:
1. ALWAYS respond as the Guide. NEVER simulate being a user's part.
2. Use open-ended, curious questions (e.g., 'What are you noticing inside as you think about that?', 'What does that part feel?', 'What is it afraid would happen if it stopped doing its job?').
3. Encourage the user to speak directly *to* their parts (e.g., 'Maybe you could ask that part...').
4. Validate the user's experience and the presence of their parts without judgment.
5. Keep your responses concise and focused, typically 1-3 sentences unless explaining a concept.
6. Avoid giving advice or interpretations. Focus on facilitating the user's own discovery.
7. If the user seems blended with a part, gently help them differentiate (e.g., 'Can you see if you can step back a little and just notice that feeling/part from a place of curiosity?').
8. Reference the user's defined parts (provided below) when relevant to help ground the exploration.
9. DO NOT roleplay or create dialogue between parts. Facilitate the USER'S connection.
10. End your response naturally. Do not add prefixes like 'Guide:'.`

// GuideService turns a session's history and the user's part map into
// the next Guide reply.
type GuideService interface {
	GenerateReply(ctx context.Context, history []map[string]any, parts []map[string]any, focusPart map[string]any) (string, error)
}

type guideService struct {
	llm llm.Client
	log *logger.Logger
}

func NewGuideService(client llm.Client, log *logger.Logger) GuideService {
	return &guideService{llm: client, log: log.With("service", "GuideService")}
}

func (s *guideService) GenerateReply(ctx context.Context, history []map[string]any, parts []map[string]any, focusPart map[string]any) (string, error) {
	prompt := buildGuidePrompt(history, parts, focusPart)
	raw, err := s.llm.GenerateText(ctx, guidePersona, prompt)
	if err != nil {
		return "", err
	}
	reply := cleanGuideReply(raw)
	if reply == "" {
		s.log.Warn("Guide reply empty after cleaning", "raw_length", len(raw))
		return guideFallbackReply, nil
	}
	return reply, nil
}

func buildGuidePrompt(history []map[string]any, parts []map[string]any, focusPart map[string]any) string {
	var b strings.Builder

	b.WriteString("User's Defined Parts Context:\n")
	if len(parts) == 0 {
		b.WriteString("- No parts defined yet.\n")
	}
	for _, part := range parts {
		name := rowString(part, "name")
		if name == "" {
			name = "Unnamed Part"
		}
		role := rowString(part, "role")
		if role == "" {
			role = "N/A"
		}
		desc := rowString(part, "description")
		if desc == "" {
			desc = "N/A"
		}
		fmt.Fprintf(&b, "- %s: Role='%s', Description='%s'", name, role, desc)
		if feelings := rowStrings(part, "feelings"); len(feelings) > 0 {
			fmt.Fprintf(&b, ", Feels='%s'", strings.Join(feelings, ", "))
		}
		if beliefs := rowStrings(part, "beliefs"); len(beliefs) > 0 {
			fmt.Fprintf(&b, ", Believes='%s'", strings.Join(beliefs, ", "))
		}
		b.WriteString("\n")
	}

	b.WriteString("\nCurrent Focus:\n")
	if focusPart != nil {
		fmt.Fprintf(&b, "- The user is currently focusing on the part named '%s'. Encourage deeper exploration of this part using the 6 Fs.\n", rowString(focusPart, "name"))
	} else {
		b.WriteString("- No specific part is currently the focus. Help the user identify what's present or which part they'd like to connect with.\n")
	}

	b.WriteString("\nConversation History (User/Guide):\n")
	start := 0
	if len(history) > historyWindow {
		start = len(history) - historyWindow
	}
	window := history[start:]
	if len(window) == 0 {
		b.WriteString("- This is the beginning of the session.\n")
	}
	for _, msg := range window {
		role := rowString(msg, "role")
		if role == "" {
			role = "unknown"
		}
		role = strings.ToUpper(role[:1]) + role[1:]
		fmt.Fprintf(&b, "%s: %s\n", role, strings.TrimSpace(rowString(msg, "content")))
	}

	b.WriteString("\nIMPORTANT: Generate ONLY the Guide's next single response based on the history provided.\n")
	b.WriteString("Do NOT generate any user responses or dialogue turns beyond the Guide's immediate next reply.\n")
	b.WriteString("\nGuide's Response (gentle, curious, facilitating):")
	return b.String()
}

// cleanGuideReply strips role prefixes, instruction artifacts, and
// wrapping quotes the model sometimes adds despite instructions.
func cleanGuideReply(raw string) string {
	reply := strings.TrimSpace(raw)
	for _, prefix := range []string{"Guide:", "Assistant:", "AI:"} {
		if len(reply) >= len(prefix) && strings.EqualFold(reply[:len(prefix)], prefix) {
			reply = strings.TrimSpace(reply[len(prefix):])
		}
	}
	for _, artifact := range []string{"Guide's Response:", "User:"} {
		reply = strings.TrimSpace(strings.TrimPrefix(reply, artifact))
	}
	if len(reply) >= 2 {
		if (strings.HasPrefix(reply, `"`) && strings.HasSuffix(reply, `"`)) ||
			(strings.HasPrefix(reply, "'") && strings.HasSuffix(reply, "'")) {
			reply = reply[1 : len(reply)-1]
		}
	}
	return strings.Join(strings.Fields(reply), " ")
}
