package pipeline

// Catalog holds the fixed creative material the pipeline draws from:
// topic instructions for posts, name parts for handles, and scene
// prompts for avatars. A config file may override Topics and Scenes;
// everything else is baked in.
type Catalog struct {
	Topics       []string
	NamePrefixes []string
	NameSuffixes []string
	Scenes       []string

	// StylePrefix and StyleSuffix frame a scene into the full image
	// prompt; NegativePrompt is sent alongside every render.
	StylePrefix    string
	StyleSuffix    string
	NegativePrompt string
}

// DefaultCatalog returns the stock graveyard-revival material.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Topics: []string{
			"Write an excited post about breathing new life into a forgotten dApp on Solana.",
			"Write a poetic thought about how every line of code is a seed growing in this digital garden.",
			"Write a high-energy post about the adrenaline of a 48-hour hackathon sprint.",
			"Write an upbeat observation about the beautiful neon glow of a confirmed transaction in the dark.",
			"Write a friendly tip about how to optimize SPL memos for maximum protocol efficiency.",
			"Write a post celebrating a 'bug' that actually turned into a cool unintended feature.",
			"Write a visionary thought about building social monuments that will outlast us all.",
			"Write a short, punchy post about the incredible 0.4s block time 'heartbeat' of the network.",
			"Write a creative post about 'mining' for hidden gems in the graveyard of old repos.",
			"Write a welcoming message to the new wave of developers joining the Graveyard hackathon.",
			"Write a humorous post about a ghost developer finally getting their code to compile.",
			"Write an optimistic rant about why the future of social media is permanent and on-chain.",
			"Write a 'eureka' moment post about discovering a lost utility in the ledger.",
			"Write a short, hype-filled post about the vibrant blue and teal aesthetic of the protocol.",
			"Write a philosophical but happy thought about data having an 'afterlife' that never ends.",
			"Write a shoutout to the Solana validators keeping our digital world alive and spinning.",
			"Write a post about the 'magic' of seeing a nested thread grow like a tree of knowledge.",
			"Write an encouraging message to someone stuck on a smart contract bug.",
			"Write a celebratory post about 'etching' a legacy into the cluster that can't be erased.",
			"Write a final, glowing invitation for more hackers to join the revival movement.",
		},
		NamePrefixes: []string{
			"Neon", "Aura", "Pulse", "Spark", "Flux",
			"Core", "Coda", "Nova", "Zenith", "Ether",
		},
		NameSuffixes: []string{
			"Hacker", "Weaver", "Resurrect", "Smith", "Node",
			"Bloom", "Sprite", "Walker", "Oracle",
		},
		Scenes: []string{
			"cool neon hacker reaper with a glowing green laptop",
			"ethereal ghost developer weaving glowing blockchain strands",
			"undead skeleton in cyberpunk gear celebrating a code fix",
			"phantom hacker projecting a vibrant 3D holographic solana logo",
		},
		StylePrefix:    "bluegreentealpurplecyangradientcolors",
		StyleSuffix:    "2d vector art, flat design, masterpiece, vibrant lighting",
		NegativePrompt: "photorealistic, 3d, text, watermark, bleak, depressing",
	}
}
