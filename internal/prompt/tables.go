package prompt

// Occasions are the scene themes. A theme is also the caption category key.
var Occasions = []string{
	"working from a modern coffee shop with laptop",
	"at the gym, mid-workout, natural lighting",
	"relaxing on a sunny beach",
	"at a casual restaurant, having lunch",
	"in a city park on a bench",
	"traveling at an airport or train station",
	"in a home office with minimalist setup",
	"at a rooftop bar at golden hour",
	"walking through a vibrant street market",
	"at a co-working space",
	"out for a morning run in the city",
	"at a bookstore browsing",
	"having coffee on a balcony",
	"at a casual team meeting in an office",
	"exploring a new city on foot",
	"at a weekend brunch spot",
	"in a hotel lobby, travel vibes",
	"at a networking event, holding a drink",
	"by a lake or waterfront",
	"in a cozy cafe reading",
	"coding at a laptop in a modern office",
	"in a business meeting room, presenting or discussing",
	"driving a car, city or highway",
	"on a video call from home or office",
	"at a desk working, focused on screen",
	"commuting on a train or bus",
	"at an airport lounge waiting for a flight",
	"in a conference room with a whiteboard",
	"working from a hotel room desk",
	"at a standing desk in an open office",
	"taking a break outside a building",
	"in a car as passenger, travel or commute",
	"at a cafe with a notebook and laptop",
}

var ShotTypes = []string{
	"candid shot, natural expression, documentary style",
	"portrait, shallow depth of field, professional",
	"full-body shot, environmental portrait",
	"street style photography, urban backdrop",
	"lifestyle shot, authentic and relaxed",
	"medium shot from waist up, editorial feel",
	"over-the-shoulder moment, storytelling",
	"wide environmental shot, person in context",
}

var compositions = []string{
	"close-up, face and shoulders in frame",
	"medium shot, waist up",
	"medium shot, knees up",
	"full body in frame, person small in environment",
	"wide shot, person in context, environmental",
	"tight portrait, head and shoulders",
	"two-shot distance, subject clearly visible but not dominant",
	"long shot, figure in landscape or urban setting",
	"detail shot, hands or object in frame with person",
}

var cameraAngles = []string{
	"eye-level, straight on",
	"slightly low angle, looking up at subject",
	"slightly high angle, looking down",
	"three-quarter view, subject turned partly away",
	"profile or near-profile",
	"from behind, subject facing away",
	"Dutch angle, subtle tilt for dynamism",
	"over-the-shoulder perspective",
}

var lenses = []string{
	"35mm lens, environmental, slight wide",
	"50mm lens at f/2.8, shallow depth of field",
	"85mm lens, compressed background, portrait feel",
	"24mm wide angle, environmental context",
	"70mm telephoto, candid compression",
	"50mm lens at f/4, more in focus",
}

var Vibes = []string{
	"professional",
	"casual",
	"adventurous",
	"minimal",
	"cozy",
	"energetic",
	"laid-back",
	"focused",
}

var Surroundings = []string{
	"urban street",
	"indoor office or cafe",
	"outdoor nature or park",
	"coffee shop or cafe",
	"modern office",
	"travel or airport",
	"gym or fitness",
	"rooftop or balcony",
	"minimal backdrop",
	"cityscape or skyline",
}

// ShortSleeveClothing leaves the forearm tattoo visible.
var ShortSleeveClothing = []string{
	"fitted black t-shirt, short sleeves",
	"white crew neck t-shirt, short sleeves",
	"grey v-neck tee, short sleeves",
	"navy polo shirt, short sleeves",
	"plain dark tee and jeans, short sleeves",
}

var LongSleeveClothing = []string{
	"grey hoodie, casual",
	"navy casual shirt, sleeves rolled to mid-forearm",
	"olive green casual shirt, sleeves rolled",
	"charcoal henley",
	"light grey sweatshirt",
	"plain dark tee and jeans",
}

// Clothing is every outfit, short sleeves first.
var Clothing = append(append([]string{}, ShortSleeveClothing...), LongSleeveClothing...)

var PosesAndMoods = []string{
	"arms crossed confidently, relaxed",
	"relaxed, confident smile, approachable",
	"focused, thoughtful expression",
	"laughing naturally, candid moment",
	"calm, contemplative, relaxed posture",
	"engaged, talking or listening",
	"walking casually, authentic moment",
	"sitting back at ease, casual",
	"standing with hands in pockets",
	"back to camera, looking at view",
	"leaning against a surface, casual",
	"mid-stride or mid-motion, dynamic",
	"seated, legs crossed or relaxed",
	"silhouette or rim-lit outline",
	"sleeves rolled, forearms visible",
	"hands in frame, gesturing naturally",
}
