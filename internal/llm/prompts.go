package llm

const suggestTestsPrompt = `You are a consulting analyst. For each hypothesis below about a client project, propose ONE concrete validation action a consultant could take in the next discovery session (a question to ask, a metric to pull, or a workflow to observe).

Each hypothesis lists its current confidence and the count of supporting and contradicting evidence.

Respond ONLY with a JSON array. No markdown, no explanation. Example:
[{"id":"<hypothesis id>","suggestion":"Ask the ops lead how often the export step fails per week"}]

If you cannot propose a useful test for a hypothesis, omit it from the array.

Hypotheses:
%s`
