package fixture

// pt_BR vocabulary for names, cities and company names.
var (
	firstNames = []string{
		"Ana", "Beatriz", "Bruna", "Camila", "Carla", "Daniela", "Fernanda", "Gabriela", "Isabela",
		"Juliana", "Larissa", "Letícia", "Mariana", "Patrícia", "Renata", "Sabrina", "Tatiane",
		"Vitória", "André", "Antônio", "Bruno", "Caio", "Carlos", "Diego", "Eduardo", "Felipe",
		"Gustavo", "Henrique", "João", "José", "Lucas", "Marcelo", "Mateus", "Paulo", "Rafael",
		"Rodrigo", "Thiago", "Vinícius",
	}
	lastNames = []string{
		"Silva", "Santos", "Oliveira", "Souza", "Rodrigues", "Ferreira", "Alves", "Pereira", "Lima",
		"Gomes", "Costa", "Ribeiro", "Martins", "Carvalho", "Almeida", "Lopes", "Soares", "Fernandes",
		"Vieira", "Barbosa", "Rocha", "Dias", "Nascimento", "Andrade", "Moreira", "Nunes", "Marques",
		"Machado", "Mendes", "Freitas", "Cardoso", "Ramos", "Gonçalves", "Santana", "Teixeira",
	}
	cities = []string{
		"São Paulo", "Rio de Janeiro", "Belo Horizonte", "Salvador", "Fortaleza", "Recife", "Curitiba",
		"Porto Alegre", "Manaus", "Belém", "Goiânia", "Brasília", "Campinas", "São Luís", "Maceió",
		"Natal", "Teresina", "João Pessoa", "Florianópolis", "Vitória", "Cuiabá", "Campo Grande",
		"Aracaju", "Londrina", "Joinville", "Uberlândia", "Ribeirão Preto", "Sorocaba", "Niterói",
		"Santos", "Juiz de Fora", "Caxias do Sul", "Feira de Santana", "Petrópolis",
	}
	companySectors = []string{
		"Comércio", "Indústria", "Distribuidora", "Transportes", "Engenharia", "Consultoria",
		"Alimentos", "Tecnologia", "Construções", "Serviços", "Importação e Exportação", "Logística",
	}
	companySuffixes = []string{"Ltda.", "S.A.", "EIRELI", "ME", "e Filhos Ltda."}
	// area codes of the cities above and a few more
	areaCodes = []string{
		"11", "21", "31", "71", "85", "81", "41", "51", "92", "91", "62", "61", "19", "98", "82",
		"84", "86", "83", "48", "27", "65", "67", "79", "43", "47", "34", "16", "15", "24", "13",
		"32", "54", "75",
	}
)
