package bot

// Static command replies. Markdown, sent verbatim.

const welcomeMessage = `🕌 *Welcome to the Quran AI Assistant!*

I'm here to help you find answers to your questions about the Quran using advanced AI technology and authentic sources including tafsir (explanatory commentary).

*How I work:*
• I use intelligent search to find relevant Quran verses and tafsir
• I can perform multiple searches to gather comprehensive information
• I provide answers based on authentic Islamic sources with proper references
• I always include relevant Quran verses and citations

*Example questions:*
• "What does the Quran say about patience?"
• "Tell me about the story of Prophet Yusuf"
• "What are the benefits of reading the Quran?"
• "How does the Quran describe Paradise?"

*Commands:*
/start - Show this welcome message
/help - Show help information
/about - Learn more about this bot
/language - Show available languages

May Allah guide us all to the right path. 🤲`

const helpMessage = `📚 *Quran AI Assistant Help*

*How to ask questions:*
Simply type your question in natural language. For example:
• "What does the Quran say about kindness?"
• "Tell me about the five pillars of Islam"
• "What are the benefits of prayer?"
• "How does the Quran describe the Day of Judgment?"

*What I provide:*
• Direct quotes from the Quran with surah and ayah references
• Tafsir (explanatory commentary) when relevant
• Clear, concise answers based on authentic sources
• Comprehensive information gathered through intelligent search

*Tips for better answers:*
• Be specific in your questions
• Ask about topics, stories, or concepts in the Quran
• I can help with both simple and complex theological questions
• I'll search multiple times if needed to give you the best answer

Need help? Just ask! 🤔`

const aboutMessage = `🤖 *About Quran AI Assistant*

I'm an AI-powered assistant that answers questions about the Quran using an agentic Retrieval-Augmented Generation (RAG) system.

*How I work:*
1. I use intelligent search to find relevant Quran verses and tafsir
2. I can perform multiple targeted searches to gather comprehensive information
3. I build context from multiple sources to provide complete answers
4. I always include proper references and citations

*My sources:*
• The Holy Quran (multiple translations)
• Tafsir Ibn Kathir and other authentic commentaries

*Important note:*
While I strive for accuracy, I'm a tool to help with learning and reference. For complex religious matters, always consult with qualified Islamic scholars. 📖✨`

const languageMessage = `🌍 *Language Support*

*Currently Available:*
• English - Full support with Quran verses and tafsir

*Coming Soon:*
• Russian (Русский) - Quran verses and tafsir
• Kazakh (Қазақша) - Quran verses and tafsir

*Note:* For now, I will answer all questions in English with Quran verses and tafsir in English.

Stay tuned for updates! 📚✨`
