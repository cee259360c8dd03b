package scripture

// Book pairs the English canonical name used in citations with the key the
// Telugu corpus stores the book under.
type Book struct {
	// Name is the external canonical name (e.g. "1 Corinthians").
	Name string

	// CorpusName is the book key in the corpus. Some keys carry trailing
	// whitespace or a truncated suffix because that is how the upstream
	// corpus spells them; they must be kept byte-for-byte.
	CorpusName string
}

// bookTable is the fixed list of the 66 protestant canon books in canonical
// order. It is never mutated.
var bookTable = [66]Book{
	// ── Old Testament ──────────────────────────────────────────────────────────
	{"Genesis", "ఆదికాండము"},
	{"Exodus", "నిర్గమకాండము"},
	{"Leviticus", "లేవీయకాండము"},
	{"Numbers", "సంఖ్యాకాండము"},
	{"Deuteronomy", "ద్వితీయోపదేశకాండమ"},
	{"Joshua", "యెహొషువ"},
	{"Judges", "న్యాయాధిపతులు"},
	{"Ruth", "రూతు"},
	{"1 Samuel", "సమూయేలు మొదటి గ్రంథము"},
	{"2 Samuel", "సమూయేలు రెండవ గ్రంథము"},
	{"1 Kings", "రాజులు మొదటి గ్రంథము"},
	{"2 Kings", "రాజులు రెండవ గ్రంథము"},
	{"1 Chronicles", "దినవృత్తాంతములు మొదటి గ్రంథము"},
	{"2 Chronicles", "దినవృత్తాంతములు రెండవ గ్రంథము"},
	{"Ezra", "ఎజ్రా"},
	{"Nehemiah", "నెహెమ్యా"},
	{"Esther", "ఎస్తేరు"},
	{"Job", "యోబు గ్రంథము"},
	{"Psalms", "కీర్తనల గ్రంథము"},
	{"Proverbs", "సామెతలు"},
	{"Ecclesiastes", "ప్రసంగి"},
	{"Song of Songs", "పరమగీతము "},
	{"Isaiah", "యెషయా గ్రంథము "},
	{"Jeremiah", "యిర్మీయా"},
	{"Lamentations", "విలాపవాక్యములు"},
	{"Ezekiel", "యెహెజ్కేలు"},
	{"Daniel", "దానియేలు"},
	{"Hosea", "హొషేయ"},
	{"Joel", "యోవేలు"},
	{"Amos", "ఆమోసు"},
	{"Obadiah", "ఓబద్యా"},
	{"Jonah", "యోనా"},
	{"Micah", "మీకా "},
	{"Nahum", "నహూము"},
	{"Habakkuk", "హబక్కూకు"},
	{"Zephaniah", "జెఫన్యా"},
	{"Haggai", "హగ్గయి"},
	{"Zechariah", "జెకర్యా"},
	{"Malachi", "మలాకీ"},
	// ── New Testament ──────────────────────────────────────────────────────────
	{"Matthew", "మత్తయి సువార్త"},
	{"Mark", "మార్కు సువార్త"},
	{"Luke", "లూకా సువార్త"},
	{"John", "యోహాను సువార్త"},
	{"Acts", "అపొస్తలుల కార్యములు"},
	{"Romans", "రోమీయులకు"},
	{"1 Corinthians", "1 కొరింథీయులకు"},
	{"2 Corinthians", "2 కొరింథీయులకు"},
	{"Galatians", "గలతీయులకు"},
	{"Ephesians", "ఎఫెసీయులకు"},
	{"Philippians", "ఫిలిప్పీయులకు"},
	{"Colossians", "కొలొస్సయులకు"},
	{"1 Thessalonians", "1 థెస్సలొనీకయులకు"},
	{"2 Thessalonians", "2 థెస్సలొనీకయులకు"},
	{"1 Timothy", "1 తిమోతికి"},
	{"2 Timothy", "2 తిమోతికి"},
	{"Titus", "తీతుకు"},
	{"Philemon", "ఫిలేమోనుకు"},
	{"Hebrews", "హెబ్రీయులకు"},
	{"James", "యాకోబు"},
	{"1 Peter", "1 పేతురు"},
	{"2 Peter", "2 పేతురు"},
	{"1 John", "1 యోహాను"},
	{"2 John", "2 యోహాను"},
	{"3 John", "3 యోహాను"},
	{"Jude", "యూదా"},
	{"Revelation", "ప్రకటన గ్రంథము"},
}

// citationForms maps citation spellings that the reference prompt itself
// teaches the model ("Psalm 23:1") onto their table entry.
var citationForms = map[string]string{
	"Psalm": "Psalms",
}
