package prompt

import "github.com/HugeFrog24/gpt-video-studio/internal/domain"

// DefaultCatalog is seeded into the prompt store on first start.
var DefaultCatalog = []domain.Prompt{
	{
		ID:    "youtube-title",
		Title: "YouTube title",
		Template: `Your role is to generate three titles for a YouTube video.

Below you will receive a transcription of this video, use it to generate the titles.
Below you will also receive a list of titles, use that list as a reference for the titles to be generated.

The titles must have at most 60 characters.
The titles must be catchy and attractive to maximize clicks.

Return ONLY the three titles in list format as in the example below:
'''
- Title 1
- Title 2
- Title 3
'''

Transcription:
'''
{transcription}
'''`,
	},
	{
		ID:    "youtube-description",
		Title: "YouTube description",
		Template: `Your role is to generate a clear and concise description for a YouTube video.

Write the description from the perspective of the author of the video, in the same language as the transcription.
The description must have at most 80 words in first person, containing the main points of the video.

Use catchy words that grab the attention of whoever is reading.

Also, at the end of the description, include a list of 3 to 10 lowercase hashtags containing keywords from the video.

The return must follow the following format:
'''
Description.

#hashtag1 #hashtag2 #hashtag3 ...
'''

Transcription:
'''
{transcription}
'''`,
	},
	{
		ID:    "summary",
		Title: "Summary",
		Template: `Summarize the following text, maintaining key information and context:

{transcription}`,
	},
}
