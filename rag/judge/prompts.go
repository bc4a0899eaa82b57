package judge

const routerPrompt = `You are an expert at routing a user question to a vectorstore or web search.
Use the vectorstore for questions about the documents the user has uploaded; you do not need
to be stringent with the keywords. Otherwise, use web search.
Give a binary choice 'web_search' or 'vectorstore' based on the question.
Return a JSON with a single key 'datasource' and no preamble or explanation.

Question to route: %s`

const relevancePrompt = `You are a grader assessing the relevance of a retrieved document to a user
question. If the document contains keywords related to the user question, grade it as relevant.
It does not need to be a stringent test; the goal is to filter out erroneous retrievals.
Give a binary score 'yes' or 'no' to indicate whether the document is relevant to the question.
Provide the binary score as a JSON with a single key 'score' and no preamble or explanation.

Here is the retrieved document:

%s

Here is the user question: %s`

const hallucinationPrompt = `You are a grader assessing whether an answer is grounded in / supported by
a set of facts. Give a binary score 'yes' or 'no' to indicate whether the answer is grounded in the facts.
Provide the binary score as a JSON with a single key 'score' and no preamble or explanation.

Here are the facts:
-------
%s
-------
Here is the answer: %s`

const usefulnessPrompt = `You are a grader assessing whether an answer is useful to resolve a question.
Give a binary score 'yes' or 'no' to indicate whether the answer is useful to resolve the question.
Provide the binary score as a JSON with a single key 'score' and no preamble or explanation.

Here is the answer:
-------
%s
-------
Here is the question: %s`
