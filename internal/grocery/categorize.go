package grocery

import "strings"

// Categorize returns the seeded catalog category for a product name, or ""
// when nothing matches. Matching is case-insensitive: exact match first,
// then substring match. Hebrew and English keywords are both recognised.
func Categorize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ""
	}

	if cat, ok := exactMatch[name]; ok {
		return cat
	}

	// Ordered longer/more-specific first.
	for _, entry := range substringMatches {
		if strings.Contains(name, entry.keyword) {
			return entry.category
		}
	}

	return ""
}

const (
	produce      = "Produce"
	dairy        = "Dairy"
	meat         = "Meat & Fish"
	bakery       = "Bakery"
	pantry       = "Pantry"
	frozen       = "Frozen"
	beverages    = "Beverages"
	snacks       = "Snacks"
	household    = "Household"
	personalCare = "Personal Care"
)

var exactMatch = map[string]string{
	"apple": produce, "apples": produce, "banana": produce, "bananas": produce,
	"tomato": produce, "tomatoes": produce, "cucumber": produce, "cucumbers": produce,
	"onion": produce, "onions": produce, "potato": produce, "potatoes": produce,
	"lemon": produce, "lemons": produce, "garlic": produce, "lettuce": produce,
	"תפוח": produce, "תפוחים": produce, "בננה": produce, "עגבניה": produce,
	"עגבניות": produce, "מלפפון": produce, "מלפפונים": produce, "בצל": produce,
	"תפוחי אדמה": produce, "לימון": produce, "שום": produce, "חסה": produce,

	"milk": dairy, "cheese": dairy, "butter": dairy, "yogurt": dairy,
	"eggs": dairy, "cream": dairy, "cottage": dairy,
	"חלב": dairy, "גבינה": dairy, "חמאה": dairy, "יוגורט": dairy,
	"ביצים": dairy, "שמנת": dairy, "קוטג'": dairy, "לבן": dairy,

	"chicken": meat, "beef": meat, "fish": meat, "salmon": meat, "tuna": meat,
	"עוף": meat, "בקר": meat, "דג": meat, "סלמון": meat, "שניצל": meat,

	"bread": bakery, "pita": bakery, "challah": bakery, "bagel": bakery, "rolls": bakery,
	"לחם": bakery, "פיתה": bakery, "פיתות": bakery, "חלה": bakery, "לחמניות": bakery,

	"rice": pantry, "pasta": pantry, "flour": pantry, "sugar": pantry, "salt": pantry,
	"oil": pantry, "tahini": pantry, "hummus": pantry,
	"אורז": pantry, "פסטה": pantry, "קמח": pantry, "סוכר": pantry, "מלח": pantry,
	"שמן": pantry, "טחינה": pantry, "חומוס": pantry,

	"ice cream": frozen, "גלידה": frozen,

	"coffee": beverages, "tea": beverages, "juice": beverages, "water": beverages,
	"soda": beverages, "wine": beverages, "beer": beverages,
	"קפה": beverages, "תה": beverages, "מיץ": beverages, "מים": beverages,
	"סודה": beverages, "יין": beverages, "בירה": beverages,

	"chips": snacks, "cookies": snacks, "chocolate": snacks, "bamba": snacks, "crackers": snacks,
	"צ'יפס": snacks, "עוגיות": snacks, "שוקולד": snacks, "במבה": snacks, "ביסלי": snacks,

	"paper towels": household, "toilet paper": household, "dish soap": household,
	"detergent": household, "sponges": household, "trash bags": household,
	"נייר טואלט": household, "מגבות נייר": household, "סבון כלים": household,
	"אבקת כביסה": household, "ספוגים": household, "שקיות אשפה": household,

	"shampoo": personalCare, "toothpaste": personalCare, "deodorant": personalCare, "soap": personalCare,
	"שמפו": personalCare, "משחת שיניים": personalCare, "דאודורנט": personalCare, "סבון": personalCare,
}

var substringMatches = []struct {
	keyword  string
	category string
}{
	// Most specific first so "frozen pizza" is not read as pantry.
	{"frozen", frozen},
	{"קפוא", frozen},
	{"ice cream", frozen},

	{"chicken", meat},
	{"beef", meat},
	{"fish", meat},
	{"עוף", meat},
	{"בשר", meat},
	{"דג", meat},

	{"cheese", dairy},
	{"yogurt", dairy},
	{"milk", dairy},
	{"גבינ", dairy},
	{"יוגורט", dairy},
	{"חלב", dairy},

	{"bread", bakery},
	{"לחם", bakery},
	{"עוגה", bakery},

	{"juice", beverages},
	{"water", beverages},
	{"מיץ", beverages},
	{"מים", beverages},

	{"paper", household},
	{"soap", household},
	{"נייר", household},
	{"ניקוי", household},

	{"shampoo", personalCare},
	{"שמפו", personalCare},

	{"beans", pantry},
	{"sauce", pantry},
	{"rice", pantry},
	{"pasta", pantry},
	{"שימורי", pantry},
	{"רוטב", pantry},

	{"chip", snacks},
	{"cookie", snacks},
	{"חטיף", snacks},

	{"apple", produce},
	{"tomato", produce},
	{"spinach", produce},
	{"ירק", produce},
	{"פרי", produce},
}
