package caption

// Tone is a named pool of opening hooks.
type Tone struct {
	Name  string
	Hooks []string
}

var (
	Inspiring = Tone{Name: "inspiring", Hooks: []string{
		"The best business you'll ever build is the one that keeps you curious.",
		"Nobody is coming to save your idea. You ship it or it dies.",
		"Your comfort zone is where ideas go to retire. Get uncomfortable.",
		"Every 'overnight success' has a highlight reel. The real story is in the cuts.",
		"Build something you'd use at 2am. That's usually the one that matters.",
		"The gap between idea and execution is where most people quit. Don't.",
		"You don't need a better idea. You need better habits and one idea you won't drop.",
		"Side projects become main projects when you stop waiting for permission.",
		"The only pitch that matters is the one you make to yourself every morning.",
		"Hustle isn't about hours. It's about direction.",
	}}

	Sarcastic = Tone{Name: "sarcastic", Hooks: []string{
		"Yes, I'm 'just' working from a cafe. The cafe is my office. The office is a vibe.",
		"My therapist said touch grass. I'm building an app for that. (Kidding. Maybe.)",
		"Sleep is for people who haven't figured out their next feature yet.",
		"I optimise my morning routine so I can chaos-mode the rest of the day. Balanced.",
		"Another day of 'it's not a bug it's a feature' and believing it.",
		"Idea: a startup that reminds founders to drink water. We'd still forget.",
		"Building in public so my future self has receipts. You're welcome, future me.",
		"Work-life balance is when you love what you're building so much it doesn't feel like work. Or so they say.",
		"My to-do list is a suggestion. A very loud, very long suggestion.",
		"Hustle culture said rest. I said one more commit. We are not the same. (We should rest.)",
	}}

	Philosophical = Tone{Name: "philosophical", Hooks: []string{
		"What you do daily compounds. The question is: toward what?",
		"Identity isn't 'I'm a founder.' It's 'I'm the kind of person who ships.'",
		"The goal isn't to be busy. It's to be effective in the direction that matters.",
		"You're not building a company. You're building a system that works without you.",
		"Clarity comes from doing, not from thinking about doing.",
		"Most limits are stories we tell ourselves. Some are real. Learn the difference.",
		"Success is a lagging indicator. The leading indicator is what you do when nobody's watching.",
		"The market doesn't care about your story. It cares about the problem you solve.",
		"You can't outthink the work. You can only go through it.",
		"The best time to start was yesterday. The second best is now. (Yes, still.)",
	}}

	// DefaultTones is every built-in tone.
	DefaultTones = []Tone{Inspiring, Sarcastic, Philosophical}
)

var brainstorms = []string{
	"Brainstorm: What's one problem your friends complain about that no app really fixes yet?",
	"Idea dump: A product that does one thing incredibly well. What's your one thing?",
	"What if the 'boring' industry you ignore is exactly where the opportunity is?",
	"Random thought: The next big thing might just be a small tweak to something that already exists.",
	"Challenge: Describe your idea in one sentence. If you can't, simplify until you can.",
	"What's a skill you have that others would pay to learn? That's a business.",
	"The best businesses often come from 'I wish someone would just…' What's yours?",
	"Idea: Solve your own problem first. If it's real, others have it too.",
	"What if you launched in a week with half the features? What's the smallest version?",
	"Brainstorm: Who's already winning in your space, and what would you do 10x differently?",
	"The gap between 'everyone needs this' and 'I'm building this' is just a decision.",
	"What's one automation that would save you 5 hours a week? Build that.",
	"Idea: A community around one specific outcome. Not 'productivity' but 'shipping before midnight.'",
	"What problem do you keep coming back to? That's not a distraction. That's a signal.",
	"Random prompt: If you had to make $100 from one skill this month, what would you do?",
}

var engagement = []string{
	"What's one thing you're building or shipping this week? Drop it below 👇",
	"Save this if you needed the reminder. Share it if someone else does.",
	"Comment your current obsession (project, idea, or problem you're solving).",
	"What would you add to this? Let's brainstorm in the comments.",
	"Tag someone who needs to see this. Or who's already living it.",
	"What's the one idea you keep coming back to? Maybe it's time.",
	"Drop a 🔥 if you're building something. No judgment, only support.",
	"Reply with the last thing you shipped. Celebrate the small wins.",
	"What's holding you back from launching? Sometimes saying it out loud helps.",
	"If you're reading this, you're already in the right place. What's your next move?",
}

var tagsByCategory = map[string][]string{
	"work": {
		"entrepreneur", "startuplife", "founder", "buildinpublic", "hustle", "mindset", "grind", "business", "leadership",
		"remotework", "startup", "entrepreneurlife", "businessowner", "motivation", "success", "workfromanywhere",
		"sidehustle", "businessideas", "startupideas", "indiehacker", "solopreneur", "digitalnomad",
	},
	"coffee": {
		"coffee", "entrepreneur", "remotework", "cafe", "laptoplife", "buildinpublic", "mindset", "productivity",
		"coffeelover", "workfromcafe", "freelancer", "startuplife", "founder", "hustle", "sidehustle", "businessideas",
	},
	"gym": {
		"fitness", "entrepreneur", "mindset", "grind", "discipline", "health", "hustle", "motivation", "founder",
		"buildinpublic", "fitnessmotivation", "entrepreneurlife", "success", "growth", "mentalstrength",
	},
	"beach": {
		"beach", "lifestyle", "entrepreneur", "mindset", "recharge", "travel", "buildinpublic", "balance",
		"digitalnomad", "remotework", "founder", "worklifebalance", "entrepreneurlife", "wanderlust",
	},
	"food": {
		"food", "entrepreneur", "lifestyle", "networking", "buildinpublic", "mindset", "hustle", "founder",
		"businessideas", "startuplife", "entrepreneurlife", "foodie", "meeting", "collab",
	},
	"travel": {
		"travel", "entrepreneur", "remotework", "digitalnomad", "buildinpublic", "lifestyle", "adventure",
		"founder", "locationindependent", "startuplife", "wanderlust", "entrepreneurlife", "workfromanywhere",
	},
	"outdoor": {
		"outdoor", "lifestyle", "entrepreneur", "mindset", "nature", "buildinpublic", "balance", "founder",
		"freshair", "thinking", "ideas", "entrepreneurlife", "clarity", "creativity",
	},
	"default": {
		"entrepreneur", "lifestyle", "buildinpublic", "mindset", "hustle", "startup", "grind", "founder",
		"entrepreneurlife", "business", "motivation", "success", "sidehustle", "businessideas", "startupideas",
		"indiehacker", "solopreneur", "leadership", "growth",
	},
}

var evergreenTags = []string{
	"entrepreneur", "buildinpublic", "mindset", "founder", "startuplife", "businessideas", "entrepreneurlife",
}
