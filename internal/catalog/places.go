package catalog

import "github.com/bdsalocin/comhodl-api/internal/geo"

var montpellierPlaces = []Place{
	{
		ID:          1,
		Name:        "Place de la Comédie",
		Category:    "place",
		Coordinate:  geo.Coordinate{Latitude: 43.6089, Longitude: 3.8797},
		Description: "Place centrale de Montpellier",
		Icon:        "📍",
		Hours:       "Toujours ouvert",
		Open:        true,
		Points:      150,
		ImageURL:    "https://upload.wikimedia.org/wikipedia/commons/thumb/e/e8/Opera_Comedie_Montpellier.jpg/1200px-Opera_Comedie_Montpellier.jpg",
	},
	{
		ID:          2,
		Name:        "Jardin des Plantes",
		Category:    "park",
		Coordinate:  geo.Coordinate{Latitude: 43.6147, Longitude: 3.8647},
		Description: "Plus ancien jardin botanique de France",
		Icon:        "🌿",
		Hours:       "6h - 20h",
		Open:        true,
		Points:      150,
		ImageURL:    "https://upload.wikimedia.org/wikipedia/commons/thumb/8/8c/Serres_Martins.JPG/1200px-Serres_Martins.JPG",
	},
	{
		ID:          3,
		Name:        "Cathédrale Saint-Pierre",
		Category:    "church",
		Coordinate:  geo.Coordinate{Latitude: 43.6122, Longitude: 3.8722},
		Description: "Cathédrale gothique du XIVe siècle",
		Icon:        "🏛️",
		Hours:       "8h - 19h",
		Open:        true,
		Points:      150,
		ImageURL:    "https://upload.wikimedia.org/wikipedia/commons/thumb/b/b0/Fa%C3%A7ade_St_Pierre.JPG/800px-Fa%C3%A7ade_St_Pierre.JPG",
	},
	{
		ID:          4,
		Name:        "Musée Fabre",
		Category:    "museum",
		Coordinate:  geo.Coordinate{Latitude: 43.6111, Longitude: 3.8800},
		Description: "Musée des beaux-arts",
		Icon:        "🖼️",
		Hours:       "10h - 18h",
		Open:        true,
		Points:      150,
		ImageURL:    "https://upload.wikimedia.org/wikipedia/commons/e/e8/Mus%C3%A9e_Fabre_-_Montpellier.jpg",
	},
	{
		ID:          5,
		Name:        "Marché du Lez",
		Category:    "shopping",
		Coordinate:  geo.Coordinate{Latitude: 43.6222, Longitude: 3.9122},
		Description: "Centre commercial moderne",
		Icon:        "🛒",
		Hours:       "10h - 20h",
		Open:        true,
		Points:      150,
		ImageURL:    "https://upload.wikimedia.org/wikipedia/commons/7/7d/March%C3%A9_du_Lez-vue_d%27ensemble-Montpellier.jpg",
	},
	{
		ID:          6,
		Name:        "Stade de la Mosson",
		Category:    "sport",
		Coordinate:  geo.Coordinate{Latitude: 43.6222, Longitude: 3.8122},
		Description: "Stade de football",
		Icon:        "🏆",
		Hours:       "9h - 17h",
		Open:        true,
		Points:      150,
		ImageURL:    "https://upload.wikimedia.org/wikipedia/commons/c/c3/Match_MHSC_PSG_au_Stade_de_la_Mosson.jpg",
	},
	{
		ID:          7,
		Name:        "Gare Saint-Roch",
		Category:    "transport",
		Coordinate:  geo.Coordinate{Latitude: 43.6044, Longitude: 3.8778},
		Description: "Gare principale",
		Icon:        "🚉",
		Hours:       "5h - 23h",
		Open:        true,
		Points:      150,
		ImageURL:    "https://upload.wikimedia.org/wikipedia/commons/thumb/3/3f/Gare_de_Montpellier_Saint-Roch_-_Fa%C3%A7ade.jpg/1200px-Gare_de_Montpellier_Saint-Roch_-_Fa%C3%A7ade.jpg",
	},
	{
		ID:          8,
		Name:        "Antigone",
		Category:    "architecture",
		Coordinate:  geo.Coordinate{Latitude: 43.6089, Longitude: 3.8897},
		Description: "Quartier architectural",
		Icon:        "🏙️",
		Hours:       "Toujours ouvert",
		Open:        true,
		Points:      150,
		ImageURL:    "https://upload.wikimedia.org/wikipedia/commons/thumb/c/cb/Montpellier_Place_du_Nombre_d%27Or_P1280267.jpg/1200px-Montpellier_Place_du_Nombre_d%27Or_P1280267.jpg",
	},
	{
		ID:          9,
		Name:        "Parc Montcalm",
		Category:    "park",
		Coordinate:  geo.Coordinate{Latitude: 43.6189, Longitude: 3.8697},
		Description: "Parc public",
		Icon:        "🌳",
		Hours:       "7h - 21h",
		Open:        true,
		Points:      150,
		ImageURL:    "https://upload.wikimedia.org/wikipedia/commons/4/40/Montpellier_parc_Montcalm_P1360728.jpg",
	},
	{
		ID:          10,
		Name:        "Place du Marché aux Fleurs",
		Category:    "market",
		Coordinate:  geo.Coordinate{Latitude: 43.6100, Longitude: 3.8750},
		Description: "Marché aux fleurs",
		Icon:        "💐",
		Hours:       "8h - 13h",
		Open:        true,
		Points:      150,
		ImageURL:    "https://upload.wikimedia.org/wikipedia/commons/thumb/0/05/Montpellier_hal.jpg/1200px-Montpellier_hal.jpg",
	},
}
