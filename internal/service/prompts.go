package service

import (
	"fmt"
	"strings"

	"repomind/internal/domain"
)

// InsufficientContextAnswer is the designed response when retrieval yields no
// grounding context. It is an answer, not an error.
const InsufficientContextAnswer = "I'm sorry, I don't have enough information to answer that question."

// maxSourceChars bounds how much of a file is sent to the summarizer.
const maxSourceChars = 10000

const diffSummarySystemPrompt = `You are an expert programmer, and you are trying to summarize a git diff.
Reminders about the git diff format:
For every file, there are a few metadata lines, like (for example):
` + "```" + `
diff --git a/lib/index.js b/lib/index.js
index aadf691..bfef603 100644
--- a/lib/index.js
+++ b/lib/index.js
` + "```" + `
This means that lib/index.js was modified in this commit. Note that this is only an example.
Then there is a specifier of the lines that were modified.
A line starting with + means it was added.
A line starting with - means that line was deleted.
A line that starts with neither + nor - is code given for context and better understanding.
It is not a part of the diff.
EXAMPLE SUMMARY COMMENTS:
` + "```" + `
* Raised the amount of returned recordings from 10 to 100 [packages/server/recordings_api.ts], [packages/server/constants.ts]
* Fixed a typo in the github action name [.github/workflows/gpt-commit-summarizer.yml]
* Moved the octokit initialization to a separate file [src/octokit.ts], [src/index.ts]
* Added an OpenAI API for completions [packages/utils/apis/openai.ts]
* Lowered numeric tolerance for test files
` + "```" + `
Most commits will have fewer comments than this example list.
The last comment does not include the file names, because there were more than
two relevant files in the hypothetical commit. Do not include parts of the
example in your summary. It is given only as an example of appropriate comments.`

const fileSummarySystemPrompt = `You are an intelligent senior software engineer who specialises in onboarding junior software engineers onto projects.`

const qaSystemPrompt = `You are an AI code assistant who answers questions about the codebase. Your target audience is a technical intern who is new to the codebase.
The assistant is expert, helpful, clever, articulate, friendly and well-mannered, and eager to provide vivid and thoughtful responses.
If the question is asking about code or a specific file, provide a detailed answer, giving step by step instructions if necessary.
Take into account any CONTEXT BLOCK that is provided in the conversation.
If the context does not provide the answer to the question, say exactly: "I'm sorry, I don't have enough information to answer that question."
Do not apologize for previous responses; instead indicate that new information was gained.
Do not invent anything that is not drawn directly from the context.
Answer in markdown syntax, with code snippets if needed. Be as detailed as possible when answering, and make sure there is no ambiguity in the response.`

func diffSummaryUserPrompt(diff string) string {
	return "Summarize the following git diff file:\n\n" + diff
}

func fileSummaryUserPrompt(fileName, code string) string {
	return fmt.Sprintf(`You are onboarding a junior software engineer and explaining to them the purpose of the %s file.
Here is the code:
---
%s
---
Give a summary of the code above in no more than 100 words.`, fileName, code)
}

func qaUserPrompt(contextBlock, question string) string {
	return fmt.Sprintf(`START CONTEXT BLOCK
%s
END OF CONTEXT BLOCK

START QUESTION
%s
END OF QUESTION`, contextBlock, question)
}

// buildContextBlock concatenates retrieved rows in similarity-descending
// order, matching the order they were returned by the knowledge store.
func buildContextBlock(refs []domain.FileReference) string {
	var sb strings.Builder
	for _, r := range refs {
		fmt.Fprintf(&sb, "source: %s\ncode content: %s\nsummary of file: %s\n\n", r.FileName, r.SourceCode, r.Summary)
	}
	return sb.String()
}

// truncateSource caps file content at maxSourceChars characters before it is
// sent to the summarizer, to bound cost and latency.
func truncateSource(content string) string {
	runes := []rune(content)
	if len(runes) <= maxSourceChars {
		return content
	}
	return string(runes[:maxSourceChars])
}
